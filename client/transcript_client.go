package client

import (
	"context"
	"fmt"
	"net/url"

	apperrors "github.com/meetscribe/meetscribe-cli/pkg/errors"
	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

// transcriptResponse is the snapshot endpoint's payload.
type transcriptResponse struct {
	Segments []transcript.Segment `json:"segments"`
}

// FetchTranscript retrieves the current known transcript for a meeting in a
// single request. A meeting the service has no transcript for yet yields an
// empty slice, not an error. Satisfies session.SnapshotLoader.
func (c *APIClient) FetchTranscript(ctx context.Context, ref meeting.Ref) ([]transcript.Segment, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("fetching transcript: %w", err)
	}

	path := fmt.Sprintf("/api/v1/transcripts/%s/%s",
		url.PathEscape(ref.Platform.String()),
		url.PathEscape(ref.NativeID),
	)

	var resp transcriptResponse
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Segments, nil
}
