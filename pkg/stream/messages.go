package stream

import (
	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

// Inbound frame types consumed from the streaming endpoint.
const (
	msgTranscriptMutable   = "transcript.mutable"
	msgTranscriptFinalized = "transcript.finalized"
	msgMeetingStatus       = "meeting.status"
	msgSubscribed          = "subscribed"
	msgPong                = "pong"
	msgError               = "error"
)

// Outbound actions.
const (
	actionSubscribe = "subscribe"
	actionPing      = "ping"
)

// subscribeMessage names the meetings this connection wants updates for.
type subscribeMessage struct {
	Action   string           `json:"action"`
	Meetings []subscribeEntry `json:"meetings"`
}

type subscribeEntry struct {
	Platform string `json:"platform"`
	NativeID string `json:"native_id"`
}

func newSubscribeMessage(ref meeting.Ref) subscribeMessage {
	return subscribeMessage{
		Action: actionSubscribe,
		Meetings: []subscribeEntry{
			{Platform: string(ref.Platform), NativeID: ref.NativeID},
		},
	}
}

// pingMessage is the heartbeat sent while the transport stays open.
type pingMessage struct {
	Action string `json:"action"`
}

// envelope is the decoded shape of every inbound frame. Only the fields
// relevant to the frame's type are populated.
type envelope struct {
	Type     string        `json:"type"`
	Segments []wireSegment `json:"segments,omitempty"`
	Status   string        `json:"status,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// wireSegment mirrors the segment shape on the wire.
type wireSegment struct {
	AbsoluteStartTime string  `json:"absolute_start_time"`
	AbsoluteEndTime   string  `json:"absolute_end_time"`
	Start             float64 `json:"start"`
	End               float64 `json:"end"`
	Text              string  `json:"text"`
	Speaker           string  `json:"speaker"`
	Language          string  `json:"language"`
	SessionID         string  `json:"session_id"`
	UpdatedAt         string  `json:"updated_at"`
}

func (w wireSegment) toSegment() transcript.Segment {
	return transcript.Segment{
		AbsoluteStartTime: w.AbsoluteStartTime,
		AbsoluteEndTime:   w.AbsoluteEndTime,
		RelativeStartTime: w.Start,
		RelativeEndTime:   w.End,
		Text:              w.Text,
		Speaker:           w.Speaker,
		Language:          w.Language,
		SessionID:         w.SessionID,
		UpdatedAt:         w.UpdatedAt,
	}
}

// Event is a typed event decoded from an inbound frame.
type Event interface {
	event()
}

// TranscriptEvent carries merged-ready segments from a mutable or finalized
// transcript frame. Both kinds follow the identical merge path; Final exists
// for observability only.
type TranscriptEvent struct {
	Final    bool
	Segments []transcript.Segment
}

// StatusEvent carries a meeting lifecycle change.
type StatusEvent struct {
	Status meeting.Status
}

// SubscribedEvent acknowledges the subscription. Informational only.
type SubscribedEvent struct{}

// PongEvent answers a heartbeat ping. Informational only.
type PongEvent struct{}

// ServerErrorEvent surfaces an application error reported by the server.
// Non-fatal: the transport stays open.
type ServerErrorEvent struct {
	Message string
}

func (TranscriptEvent) event()  {}
func (StatusEvent) event()      {}
func (SubscribedEvent) event()  {}
func (PongEvent) event()        {}
func (ServerErrorEvent) event() {}

// EventHandler receives decoded events in arrival order.
type EventHandler func(Event)
