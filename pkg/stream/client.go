// Package stream implements the persistent streaming connection to the
// transcription service: connect, subscribe, heartbeat, receive, reconnect
// with bounded backoff, and teardown. One Client owns at most one underlying
// transport at a time; a new connect attempt always tears down the prior one.
package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	mserrors "github.com/meetscribe/meetscribe-cli/pkg/errors"
	"github.com/meetscribe/meetscribe-cli/pkg/logging"
	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
	"github.com/meetscribe/meetscribe-cli/pkg/metrics"
)

// State is the logical connection state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Default tuning constants.
const (
	DefaultHeartbeatInterval = 25 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second
)

// Config configures a streaming Client.
type Config struct {
	// URL is the runtime-resolved websocket endpoint (ws:// or wss://).
	URL string

	// Token authenticates the connection; sent as the X-API-Key header.
	Token string

	// HeartbeatInterval is how often a ping is sent while the transport is
	// open. Defaults to DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration

	// HandshakeTimeout bounds the websocket handshake.
	HandshakeTimeout time.Duration

	// Backoff governs reconnection after unexpected closes.
	Backoff BackoffPolicy

	// Dialer opens the transport. Nil selects the gorilla-backed default.
	Dialer Dialer

	// Logger receives connection diagnostics. Nil discards them.
	Logger logging.Logger

	// Metrics optionally records frame and reconnect counters. Nil-safe.
	Metrics *metrics.StreamMetrics
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Backoff == (BackoffPolicy{}) {
		c.Backoff = DefaultBackoffPolicy()
	}
	if c.Dialer == nil {
		c.Dialer = NewDialer(c.HandshakeTimeout)
	}
	if c.Logger == nil {
		c.Logger = logging.NewNopLogger()
	}
	return c
}

// Snapshot is the reactive view of the connection surfaced to callers.
// Raw transport errors never escape the client; this is all the UI sees.
type Snapshot struct {
	State             State
	Connecting        bool
	Connected         bool
	ReconnectAttempts int
	ReconnectPending  bool
	LastBackoff       time.Duration
	Err               error
}

// Client maintains a single logical streaming connection for one meeting.
type Client struct {
	cfg     Config
	target  meeting.Ref
	handler EventHandler
	log     logging.Logger

	mu               sync.Mutex
	state            State
	conn             Conn
	generation       uint64
	terminal         bool
	attempts         int
	lastErr          error
	lastDelay        time.Duration
	reconnectEnabled bool
	reconnectTimer   *time.Timer
	hbStop           chan struct{}
}

// NewClient validates the target and the stream URL and returns a client in
// the idle state. A URL the transport cannot even attempt to open is reported
// here, immediately, with no reconnect ever scheduled.
func NewClient(cfg Config, target meeting.Ref, handler EventHandler) (*Client, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if err := validateStreamURL(cfg.URL); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		target:  target,
		handler: handler,
		log: cfg.Logger.With(
			logging.F("meeting", target.String()),
		),
		state: StateIdle,
	}, nil
}

// Target returns the meeting this client subscribes to.
func (c *Client) Target() meeting.Ref {
	return c.target
}

// Start moves the client from idle (or a terminal closed state) to
// connecting. It is a no-op while a connection attempt or an open transport
// is in flight. Starting re-enables reconnection and resets the attempt
// counter: it is the explicit reactivation path after exhaustion. Once the
// meeting has reached a terminal status the client stays closed and Start
// returns ErrSessionClosed.
func (c *Client) Start() error {
	c.mu.Lock()
	if c.terminal {
		// The meeting ended; this client never reconnects.
		c.mu.Unlock()
		return mserrors.ErrSessionClosed
	}
	switch c.state {
	case StateConnecting, StateOpen:
		c.mu.Unlock()
		return nil
	}
	c.reconnectEnabled = true
	c.attempts = 0
	c.lastErr = nil
	gen := c.beginConnectLocked()
	c.mu.Unlock()

	go c.dialAndServe(gen)
	return nil
}

// Stop tears the connection down from any state: reconnection is disabled,
// both timers are cleared, the transport is closed with a normal close code,
// and the client returns to idle. Safe to call repeatedly.
func (c *Client) Stop() {
	c.mu.Lock()
	c.reconnectEnabled = false
	c.stopReconnectTimerLocked()
	c.stopHeartbeatLocked()
	// Invalidate any in-flight dial or read callback before it can touch
	// shared state again.
	c.generation++
	if c.conn != nil {
		c.state = StateClosing
		_ = c.conn.WriteMessage(websocket.CloseMessage, normalCloseFrame(""))
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = StateIdle
	c.mu.Unlock()

	c.log.Debug("stream stopped")
}

// Snapshot returns the current connection view.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:             c.state,
		Connecting:        c.state == StateConnecting,
		Connected:         c.state == StateOpen,
		ReconnectAttempts: c.attempts,
		ReconnectPending:  c.reconnectTimer != nil,
		LastBackoff:       c.lastDelay,
		Err:               c.lastErr,
	}
}

// beginConnectLocked clears timers, tears down any prior transport, and
// enters connecting under a fresh generation. Caller holds c.mu.
func (c *Client) beginConnectLocked() uint64 {
	c.stopReconnectTimerLocked()
	c.stopHeartbeatLocked()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.generation++
	c.state = StateConnecting
	return c.generation
}

// dialAndServe dials the endpoint and, on success, subscribes, starts the
// heartbeat, and consumes frames until the transport closes.
func (c *Client) dialAndServe(gen uint64) {
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("X-API-Key", c.cfg.Token)
	}

	conn, err := c.cfg.Dialer.Dial(c.cfg.URL, header)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.lastErr = err
		c.state = StateClosed
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		c.log.Warn("stream dial failed", logging.Err(err))
		return
	}

	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	c.lastDelay = 0

	payload, _ := json.Marshal(newSubscribeMessage(c.target))
	if werr := conn.WriteMessage(websocket.TextMessage, payload); werr != nil {
		// Recorded only; the paired close event drives the transition.
		c.lastErr = werr
	}
	c.startHeartbeatLocked(gen, conn)
	c.mu.Unlock()

	c.log.Info("stream open")
	c.readLoop(gen, conn)
}

// readLoop delivers frames strictly in arrival order until the transport
// reports an error, which always follows any error event gorilla surfaces.
func (c *Client) readLoop(gen uint64, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.handleFrame(gen, data)
	}
}

// handleFrame interprets one inbound frame and routes the event. A frame that
// fails to parse is logged and dropped; it never propagates into the
// transport's read loop.
func (c *Client) handleFrame(gen uint64, data []byte) {
	ev, err := Interpret(data)
	if err != nil {
		c.cfg.Metrics.ObserveParseError()
		c.log.Warn("dropping frame", logging.Err(err))
		return
	}

	switch e := ev.(type) {
	case TranscriptEvent:
		c.cfg.Metrics.ObserveFrame(frameName(e))
	case StatusEvent:
		c.cfg.Metrics.ObserveFrame(msgMeetingStatus)
		if e.Status.IsTerminal() {
			// Authoritative stop: terminal lifecycle state closes the
			// transport and disables reconnection for good.
			c.log.Info("terminal meeting status", logging.F("status", e.Status.String()))
			c.closeForTerminalStatus(gen)
		}
	case SubscribedEvent:
		c.cfg.Metrics.ObserveFrame(msgSubscribed)
		c.log.Debug("subscription acknowledged")
	case PongEvent:
		c.cfg.Metrics.ObserveFrame(msgPong)
	case ServerErrorEvent:
		c.cfg.Metrics.ObserveFrame(msgError)
		c.log.Warn("server reported error", logging.F("message", e.Message))
		c.mu.Lock()
		if gen == c.generation {
			c.lastErr = errors.New(e.Message)
		}
		c.mu.Unlock()
	}

	if c.handler != nil {
		c.handler(ev)
	}
}

func frameName(e TranscriptEvent) string {
	if e.Final {
		return msgTranscriptFinalized
	}
	return msgTranscriptMutable
}

// closeForTerminalStatus closes the transport with a normal close code and
// disables further reconnection, regardless of the attempt counter.
func (c *Client) closeForTerminalStatus(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.reconnectEnabled = false
	c.terminal = true
	c.stopReconnectTimerLocked()
	c.stopHeartbeatLocked()
	if c.conn != nil {
		c.state = StateClosing
		_ = c.conn.WriteMessage(websocket.CloseMessage, normalCloseFrame("meeting ended"))
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = StateClosed
}

// handleClose reacts to the transport closing. Unexpected closes schedule a
// bounded reconnect; normal closes and closes after teardown do not.
func (c *Client) handleClose(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.stopHeartbeatLocked()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	if c.state != StateIdle {
		c.state = StateClosed
	}
	if !c.reconnectEnabled || isNormalClose(err) {
		c.mu.Unlock()
		c.log.Info("stream closed", logging.F("reason", err.Error()))
		return
	}
	c.lastErr = err
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	c.log.Warn("stream closed unexpectedly", logging.Err(err))
}

// scheduleReconnectLocked arms the single reconnect timer, or surfaces a
// terminal error once the attempt ceiling is reached. Caller holds c.mu.
func (c *Client) scheduleReconnectLocked() {
	if !c.reconnectEnabled {
		return
	}
	if c.cfg.Backoff.Exhausted(c.attempts) {
		c.lastErr = mserrors.ErrReconnectExhausted
		c.reconnectEnabled = false
		c.log.Error("reconnect ceiling reached",
			logging.F("attempts", c.attempts))
		return
	}

	delay := c.cfg.Backoff.Delay(c.attempts)
	c.attempts++
	c.lastDelay = delay
	c.cfg.Metrics.ObserveReconnect()
	c.log.Warn("scheduling reconnect",
		logging.F("attempt", c.attempts),
		logging.F("delay", delay))

	c.reconnectTimer = time.AfterFunc(delay, c.reconnect)
}

// reconnect fires from the reconnect timer.
func (c *Client) reconnect() {
	c.mu.Lock()
	c.reconnectTimer = nil
	if !c.reconnectEnabled || c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	gen := c.beginConnectLocked()
	c.mu.Unlock()

	go c.dialAndServe(gen)
}

// startHeartbeatLocked launches the periodic ping sender for the given
// connection. Exactly one heartbeat goroutine is alive at a time; it exits
// when its stop channel closes or a write fails. Caller holds c.mu.
func (c *Client) startHeartbeatLocked(gen uint64, conn Conn) {
	stop := make(chan struct{})
	c.hbStop = stop

	go func() {
		ticker := time.NewTicker(c.cfg.HeartbeatInterval)
		defer ticker.Stop()
		payload, _ := json.Marshal(pingMessage{Action: actionPing})
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					c.mu.Lock()
					if gen == c.generation {
						c.lastErr = err
					}
					c.mu.Unlock()
					c.log.Debug("heartbeat write failed", logging.Err(err))
					return
				}
			}
		}
	}()
}

func (c *Client) stopHeartbeatLocked() {
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}

func (c *Client) stopReconnectTimerLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}
