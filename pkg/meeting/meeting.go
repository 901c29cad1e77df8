// Package meeting defines the meeting identity and lifecycle vocabulary shared
// by the API client, the streaming client, and the session controller.
package meeting

import "fmt"

// Platform identifies the conferencing platform a meeting runs on.
type Platform string

const (
	PlatformGoogleMeet Platform = "google_meet"
	PlatformZoom       Platform = "zoom"
	PlatformTeams      Platform = "teams"
)

// IsValid reports whether the platform is one we know how to attend.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformGoogleMeet, PlatformZoom, PlatformTeams:
		return true
	default:
		return false
	}
}

// String returns the string representation of the platform.
func (p Platform) String() string {
	return string(p)
}

// Ref identifies a meeting to the transcription service. Platform plus the
// platform's native meeting identifier form the subscription key; ID is the
// service-internal identifier and is optional for streaming operations.
type Ref struct {
	Platform Platform `json:"platform"`
	NativeID string   `json:"native_meeting_id"`
	ID       string   `json:"id,omitempty"`
}

// Validate checks that the reference carries enough to subscribe with.
func (r Ref) Validate() error {
	if !r.Platform.IsValid() {
		return fmt.Errorf("invalid platform %q", r.Platform)
	}
	if r.NativeID == "" {
		return fmt.Errorf("native meeting id is required")
	}
	return nil
}

// String renders the reference as platform/native-id.
func (r Ref) String() string {
	return string(r.Platform) + "/" + r.NativeID
}

// Status represents the lifecycle state of a meeting bot.
type Status string

const (
	// StatusRequested means a bot was asked for but has not started joining.
	StatusRequested Status = "requested"

	// StatusJoining means the bot is in the process of entering the meeting.
	StatusJoining Status = "joining"

	// StatusAwaitingAdmission means the bot is waiting to be let in.
	StatusAwaitingAdmission Status = "awaiting_admission"

	// StatusActive means the bot is in the meeting and recording.
	StatusActive Status = "active"

	// StatusCompleted is terminal: the meeting ended normally.
	StatusCompleted Status = "completed"

	// StatusFailed is terminal: the bot could not record the meeting.
	StatusFailed Status = "failed"
)

// IsTerminal reports whether the status is one a meeting never leaves.
// Once a terminal status is observed the stream must not be reopened.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}
