package client

import (
	"context"
	"fmt"
	"net/url"
)

// StreamEndpoint is the service-provided websocket location and the token to
// present when dialing it. It is fetched on demand and injected into the
// stream configuration; nothing caches it globally.
type StreamEndpoint struct {
	// URL is the websocket URL (ws or wss).
	URL string `json:"websocket_url"`

	// Token authenticates the websocket handshake.
	Token string `json:"token"`
}

// Validate checks the endpoint is dialable.
func (e StreamEndpoint) Validate() error {
	u, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("parsing websocket URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("websocket URL must use ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("websocket URL is missing a host")
	}
	return nil
}

// FetchStreamEndpoint asks the service where the live transcript stream
// lives. Called once per session activation, right before dialing.
func (c *APIClient) FetchStreamEndpoint(ctx context.Context) (StreamEndpoint, error) {
	var ep StreamEndpoint
	if err := c.do(ctx, "GET", "/api/v1/runtime/stream", nil, &ep); err != nil {
		return StreamEndpoint{}, err
	}
	if err := ep.Validate(); err != nil {
		return StreamEndpoint{}, fmt.Errorf("invalid stream endpoint from server: %w", err)
	}
	return ep, nil
}
