package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
)

// BotRequest asks the service to send a transcription bot into a meeting.
type BotRequest struct {
	Platform meeting.Platform `json:"platform"`
	NativeID string           `json:"native_meeting_id"`

	// BotName is the display name the bot joins with. Optional.
	BotName string `json:"bot_name,omitempty"`

	// Language is the expected spoken language (BCP-47). Optional.
	Language string `json:"language,omitempty"`
}

// Meeting is the service's view of a meeting and its bot.
type Meeting struct {
	ID        string           `json:"id"`
	Platform  meeting.Platform `json:"platform"`
	NativeID  string           `json:"native_meeting_id"`
	Status    meeting.Status   `json:"status"`
	BotName   string           `json:"bot_name,omitempty"`
	StartedAt string           `json:"started_at,omitempty"`
	EndedAt   string           `json:"ended_at,omitempty"`
}

// Ref returns the streaming reference for the meeting.
func (m Meeting) Ref() meeting.Ref {
	return meeting.Ref{Platform: m.Platform, NativeID: m.NativeID, ID: m.ID}
}

// RequestBot dispatches a transcription bot. The returned meeting starts in
// the requested state; progress arrives as meeting.status frames on the
// stream.
func (c *APIClient) RequestBot(ctx context.Context, req BotRequest) (*Meeting, error) {
	ref := meeting.Ref{Platform: req.Platform, NativeID: req.NativeID}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("requesting bot: %w", err)
	}

	var m Meeting
	if err := c.do(ctx, "POST", "/api/v1/bots", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// StopBot asks the service to remove the bot from a meeting. The meeting
// transitions to a terminal status once the bot has left.
func (c *APIClient) StopBot(ctx context.Context, ref meeting.Ref) error {
	if err := ref.Validate(); err != nil {
		return fmt.Errorf("stopping bot: %w", err)
	}

	path := fmt.Sprintf("/api/v1/bots/%s/%s",
		url.PathEscape(ref.Platform.String()),
		url.PathEscape(ref.NativeID),
	)
	return c.do(ctx, "DELETE", path, nil, nil)
}
