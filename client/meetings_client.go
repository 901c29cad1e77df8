package client

import (
	"context"
)

// meetingsResponse is the meeting listing payload.
type meetingsResponse struct {
	Meetings []Meeting `json:"meetings"`
}

// ListMeetings returns the meetings known to the service, newest first,
// with their current lifecycle status.
func (c *APIClient) ListMeetings(ctx context.Context) ([]Meeting, error) {
	var resp meetingsResponse
	if err := c.do(ctx, "GET", "/api/v1/meetings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Meetings, nil
}
