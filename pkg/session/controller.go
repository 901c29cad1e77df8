// Package session coordinates a live transcript session: it bootstraps the
// transcript store from a REST snapshot exactly once per activation, keeps the
// streaming client connected while the session is active, and exposes a small
// reactive view of connection state. One controller owns one store and at most
// one streaming client at a time.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/meetscribe/meetscribe-cli/pkg/logging"
	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
	"github.com/meetscribe/meetscribe-cli/pkg/metrics"
	"github.com/meetscribe/meetscribe-cli/pkg/stream"
	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

// SnapshotLoader fetches the current known transcript for a meeting. A single
// request, no retry; implementations return an empty slice when no history
// exists yet.
type SnapshotLoader interface {
	FetchTranscript(ctx context.Context, ref meeting.Ref) ([]transcript.Segment, error)
}

// Stream is the slice of the streaming client the controller drives.
// *stream.Client satisfies it.
type Stream interface {
	Start() error
	Stop()
	Snapshot() stream.Snapshot
}

// StreamFactory builds a streaming client for a target. Swappable for tests.
type StreamFactory func(cfg stream.Config, target meeting.Ref, handler stream.EventHandler) (Stream, error)

func defaultStreamFactory(cfg stream.Config, target meeting.Ref, handler stream.EventHandler) (Stream, error) {
	return stream.NewClient(cfg, target, handler)
}

// StatusListener is notified on every meeting lifecycle change observed on
// the stream.
type StatusListener func(meeting.Status)

// Config configures a session Controller.
type Config struct {
	// Stream configures the streaming client opened for the active target.
	Stream stream.Config

	// Loader provides the one-shot transcript snapshot.
	Loader SnapshotLoader

	// OnStatus, if set, receives meeting lifecycle changes.
	OnStatus StatusListener

	// Logger receives session diagnostics. Nil discards them.
	Logger logging.Logger

	// Metrics optionally records merge counters. Nil-safe.
	Metrics *metrics.StreamMetrics

	// StreamFactory overrides streaming client construction, for tests.
	StreamFactory StreamFactory
}

// ConnectionState is the reactive snapshot surfaced to the UI. Raw errors
// never escape the session; Error is a display string.
type ConnectionState struct {
	Connecting        bool
	Connected         bool
	Error             string
	ReconnectAttempts int
}

// Controller owns one live transcript session.
type Controller struct {
	cfg     Config
	log     logging.Logger
	factory StreamFactory
	store   *transcript.Store

	mu           sync.Mutex
	id           string
	active       bool
	bootstrapped bool
	target       meeting.Ref
	client       Stream
	status       meeting.Status
}

// NewController creates a controller with an empty transcript store.
func NewController(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	factory := cfg.StreamFactory
	if factory == nil {
		factory = defaultStreamFactory
	}
	return &Controller{
		cfg:     cfg,
		log:     log,
		factory: factory,
		store:   transcript.NewStore(log),
	}
}

// Activate ensures the session for the given meeting is live: the store is
// seeded from a snapshot exactly once, then the streaming client is started.
// Calling Activate repeatedly with the same target is idempotent; a different
// target tears the previous session down first. Bootstrap failure is
// non-fatal: the stream proceeds and early history may simply be missing.
func (c *Controller) Activate(ctx context.Context, target meeting.Ref) error {
	if err := target.Validate(); err != nil {
		return fmt.Errorf("activating session: %w", err)
	}

	c.mu.Lock()
	if c.active && c.target == target {
		c.mu.Unlock()
		return nil
	}
	if c.active {
		c.teardownLocked()
	}
	c.id = uuid.New().String()
	c.active = true
	c.target = target
	c.status = ""
	alreadyBootstrapped := c.bootstrapped
	c.bootstrapped = true
	sessionID := c.id
	c.mu.Unlock()

	log := c.log.With(
		logging.F("session_id", sessionID),
		logging.F("meeting", target.String()),
	)

	if !alreadyBootstrapped {
		c.bootstrap(ctx, target, log)
	}

	// A deactivation racing the bootstrap must not resurrect the session.
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.id != sessionID {
		return nil
	}
	if c.client != nil {
		return c.client.Start()
	}

	client, err := c.factory(c.cfg.Stream, target, c.handleEvent)
	if err != nil {
		// A half-activated session must not leak its seeded store or
		// bootstrap flag into the next activation.
		c.teardownLocked()
		return fmt.Errorf("constructing stream: %w", err)
	}
	c.client = client
	log.Info("session activated")
	return client.Start()
}

// bootstrap seeds the store from the snapshot endpoint. Failure only means
// early segments will arrive solely via the stream.
func (c *Controller) bootstrap(ctx context.Context, target meeting.Ref, log logging.Logger) {
	if c.cfg.Loader == nil {
		return
	}
	segments, err := c.cfg.Loader.FetchTranscript(ctx, target)
	if err != nil {
		log.Warn("transcript snapshot failed, proceeding with stream only", logging.Err(err))
		segments = nil
	}
	c.store.Seed(segments)
	log.Debug("transcript bootstrapped", logging.F("segments", len(segments)))
}

// Deactivate tears the session down: the stream is stopped with all its
// timers cleared, the store is reset, and the bootstrap flag is cleared so a
// future activation re-bootstraps. Safe to call repeatedly and safe against
// rapid activate/deactivate cycling.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	c.teardownLocked()
	c.mu.Unlock()
}

// teardownLocked stops the client and resets session state. Caller holds c.mu.
func (c *Controller) teardownLocked() {
	if c.client != nil {
		c.client.Stop()
		c.client = nil
	}
	if c.active {
		c.log.Info("session deactivated", logging.F("session_id", c.id))
	}
	c.active = false
	c.bootstrapped = false
	c.id = ""
	c.status = ""
	c.store.Reset()
}

// Store returns the transcript store observed by the UI.
func (c *Controller) Store() *transcript.Store {
	return c.store
}

// Status returns the last meeting lifecycle state observed on the stream.
func (c *Controller) Status() meeting.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connection returns the reactive connection view for the UI.
func (c *Controller) Connection() ConnectionState {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return ConnectionState{}
	}
	snap := client.Snapshot()
	state := ConnectionState{
		Connecting:        snap.Connecting,
		Connected:         snap.Connected,
		ReconnectAttempts: snap.ReconnectAttempts,
	}
	if snap.Err != nil {
		state.Error = snap.Err.Error()
	}
	return state
}

// handleEvent routes decoded stream events: transcript updates merge into the
// store, lifecycle changes update session status and notify the listener.
// Both mutable and finalized updates take the identical merge path.
func (c *Controller) handleEvent(ev stream.Event) {
	switch e := ev.(type) {
	case stream.TranscriptEvent:
		if len(e.Segments) == 0 {
			return
		}
		merged := c.store.Upsert(e.Segments)
		c.cfg.Metrics.ObserveMerged(merged)

	case stream.StatusEvent:
		c.mu.Lock()
		c.status = e.Status
		c.mu.Unlock()
		c.log.Info("meeting status changed", logging.F("status", e.Status.String()))
		if c.cfg.OnStatus != nil {
			c.cfg.OnStatus(e.Status)
		}

	case stream.ServerErrorEvent:
		// Non-fatal; the stream client already recorded it for the UI.
		c.log.Warn("stream reported error", logging.F("message", e.Message))
	}
}
