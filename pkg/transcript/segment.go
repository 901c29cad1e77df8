// Package transcript provides the transcript segment model and the in-memory
// store that reconciles segments arriving from snapshots and the live stream.
package transcript

import "time"

// Segment is one unit of transcribed speech with a speaker, time range, and
// text. AbsoluteStartTime is the stable, device-independent identity used for
// deduplication; the relative offsets only order the exposed view.
type Segment struct {
	// AbsoluteStartTime is the stable key for deduplication and merging.
	AbsoluteStartTime string `json:"absolute_start_time"`

	// AbsoluteEndTime is the absolute timestamp at which the segment ends.
	AbsoluteEndTime string `json:"absolute_end_time,omitempty"`

	// RelativeStartTime and RelativeEndTime are seconds into the meeting.
	RelativeStartTime float64 `json:"start"`
	RelativeEndTime   float64 `json:"end"`

	// Text is the transcribed speech. It may be revised by later updates.
	Text string `json:"text"`

	// Speaker is the attributed speaker name, "Unknown" when unattributed.
	Speaker string `json:"speaker,omitempty"`

	// Language is the detected language code.
	Language string `json:"language,omitempty"`

	// SessionID identifies the transcription session that produced the segment.
	SessionID string `json:"session_id,omitempty"`

	// UpdatedAt is the optional revision timestamp used to resolve merges.
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Valid reports whether the segment carries enough to be stored. Segments
// without an identity key or without text are dropped rather than merged.
func (s Segment) Valid() bool {
	return s.AbsoluteStartTime != "" && s.Text != ""
}

// revisedAfter reports whether s carries a strictly later revision than other.
// When either side lacks a usable UpdatedAt the incoming write wins
// unconditionally, matching the upstream merge contract.
func (s Segment) revisedAfter(other Segment) bool {
	if s.UpdatedAt == "" || other.UpdatedAt == "" {
		return true
	}
	st, serr := time.Parse(time.RFC3339Nano, s.UpdatedAt)
	ot, oerr := time.Parse(time.RFC3339Nano, other.UpdatedAt)
	if serr != nil || oerr != nil {
		// Not timestamps we understand; lexicographic comparison still orders
		// same-format revision strings correctly.
		return s.UpdatedAt > other.UpdatedAt
	}
	return st.After(ot)
}
