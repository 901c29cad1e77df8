package stream

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the minimal surface of a websocket connection the client uses.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a Conn to the streaming endpoint. Swappable for tests.
type Dialer interface {
	Dial(url string, header http.Header) (Conn, error)
}

// wsDialer is the production Dialer backed by gorilla/websocket.
type wsDialer struct {
	d *websocket.Dialer
}

// NewDialer returns a websocket Dialer with the given handshake timeout.
func NewDialer(handshakeTimeout time.Duration) Dialer {
	return &wsDialer{
		d: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (w *wsDialer) Dial(rawURL string, header http.Header) (Conn, error) {
	conn, resp, err := w.d.Dial(rawURL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("websocket handshake: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return conn, nil
}

// validateStreamURL rejects URLs the transport cannot even attempt to open.
// This is the one failure that is reported immediately with no reconnect.
func validateStreamURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid stream url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid stream url scheme %q (want ws or wss)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("stream url missing host")
	}
	return nil
}

// isNormalClose reports whether the read error represents a normal closure
// (close code 1000). Anything else is an unexpected close.
func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure)
}

// normalCloseFrame is the close frame sent on deliberate teardown.
func normalCloseFrame(reason string) []byte {
	return websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
}
