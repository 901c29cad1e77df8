package stream

import (
	"encoding/json"
	"fmt"

	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

// Interpret decodes a raw inbound frame into a typed event. Transcript frames
// have their segments filtered (empty text or missing identity key dropped)
// and mapped to the store's segment shape. Unparseable or unknown frames
// return an error; the caller logs and drops them without side effects.
func Interpret(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	switch env.Type {
	case msgTranscriptMutable, msgTranscriptFinalized:
		return TranscriptEvent{
			Final:    env.Type == msgTranscriptFinalized,
			Segments: mapSegments(env.Segments),
		}, nil

	case msgMeetingStatus:
		if env.Status == "" {
			return nil, fmt.Errorf("status frame without status")
		}
		return StatusEvent{Status: meeting.Status(env.Status)}, nil

	case msgSubscribed:
		return SubscribedEvent{}, nil

	case msgPong:
		return PongEvent{}, nil

	case msgError:
		return ServerErrorEvent{Message: env.Message}, nil

	default:
		return nil, fmt.Errorf("unknown frame type %q", env.Type)
	}
}

// mapSegments converts wire segments to store segments, dropping entries that
// would not survive the store's validity check anyway.
func mapSegments(in []wireSegment) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(in))
	for _, w := range in {
		if w.AbsoluteStartTime == "" || w.Text == "" {
			continue
		}
		out = append(out, w.toSegment())
	}
	return out
}
