package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe-cli/pkg/logging"
	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
	"github.com/meetscribe/meetscribe-cli/pkg/metrics"
	"github.com/meetscribe/meetscribe-cli/pkg/session"
	"github.com/meetscribe/meetscribe-cli/pkg/stream"
	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

// NewTailCommand creates the tail command: a live transcript session printed
// to stdout until the meeting reaches a terminal status or the user
// interrupts.
func NewTailCommand(deps *Deps) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "tail <platform> <native-meeting-id>",
		Short: "Stream a meeting's live transcript to stdout",
		Long: `Follow a meeting's transcript as it is produced.

The current transcript is fetched once, then live updates stream in over a
websocket. In-progress lines are revised in place by the service; revised
lines are printed again with a ~ marker. The command exits when the meeting
completes or fails, or on Ctrl-C.

Examples:
  meetscribe tail google_meet abc-defg-hij
  meetscribe tail zoom 987654321`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.requireAPI()
			if err != nil {
				return err
			}

			ref, err := parseTarget(args[0], args[1])
			if err != nil {
				return err
			}

			return runTail(cmd.Context(), deps, api, ref, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"expose Prometheus metrics at /metrics on this address while tailing (e.g. 127.0.0.1:9464)")
	return cmd
}

func runTail(parent context.Context, deps *Deps, api API, ref meeting.Ref, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	endpoint, err := api.FetchStreamEndpoint(ctx)
	if err != nil {
		return fmt.Errorf("locating transcript stream: %w", err)
	}

	streamCfg := stream.Config{
		URL:    endpoint.URL,
		Token:  endpoint.Token,
		Logger: deps.logger(),
	}
	if deps.Config != nil {
		streamCfg.HeartbeatInterval = deps.Config.Stream.HeartbeatInterval
		backoff := stream.DefaultBackoffPolicy()
		if deps.Config.Stream.ReconnectInitialDelay > 0 {
			backoff.InitialDelay = deps.Config.Stream.ReconnectInitialDelay
		}
		if deps.Config.Stream.ReconnectMaxDelay > 0 {
			backoff.MaxDelay = deps.Config.Stream.ReconnectMaxDelay
		}
		if deps.Config.Stream.ReconnectMaxAttempts > 0 {
			backoff.MaxAttempts = deps.Config.Stream.ReconnectMaxAttempts
		}
		streamCfg.Backoff = backoff
	}

	reg := prometheus.NewRegistry()
	streamMetrics := metrics.NewStreamMetrics(reg)
	streamCfg.Metrics = streamMetrics

	if metricsAddr != "" {
		stopMetrics := serveMetrics(metricsAddr, reg, deps.logger())
		defer stopMetrics()
		fmt.Fprintf(deps.out(), "-- metrics on http://%s/metrics\n", metricsAddr)
	}

	terminal := make(chan meeting.Status, 1)
	controller := session.NewController(session.Config{
		Stream:  streamCfg,
		Loader:  api,
		Logger:  deps.logger(),
		Metrics: streamMetrics,
		OnStatus: func(s meeting.Status) {
			fmt.Fprintf(deps.out(), "-- meeting status: %s\n", s)
			if s.IsTerminal() {
				select {
				case terminal <- s:
				default:
				}
			}
		},
	})
	defer controller.Deactivate()

	printer := newTranscriptPrinter(deps.out())
	store := controller.Store()
	if _, err := metrics.RegisterStoreCollector(store, ref.String(), reg); err != nil {
		deps.logger().Warn("registering store collector", logging.Err(err))
	}
	unsubscribe := store.Subscribe(func() {
		printer.render(store.All())
	})
	defer unsubscribe()

	if err := controller.Activate(ctx, ref); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	fmt.Fprintf(deps.out(), "-- following %s (Ctrl-C to stop)\n", ref)

	// Surface stream trouble while waiting; the store subscription handles
	// the happy path.
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var lastErr string
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(deps.out(), "-- interrupted")
			return nil
		case s := <-terminal:
			if s == meeting.StatusFailed {
				return fmt.Errorf("meeting failed")
			}
			fmt.Fprintln(deps.out(), "-- meeting completed")
			return nil
		case <-ticker.C:
			conn := controller.Connection()
			if conn.Error != "" && conn.Error != lastErr {
				lastErr = conn.Error
				fmt.Fprintf(deps.out(), "-- connection: %s (attempt %d)\n", conn.Error, conn.ReconnectAttempts)
			}
			deps.logger().Debug("session connection state",
				logging.F("connected", conn.Connected),
				logging.F("connecting", conn.Connecting),
				logging.F("attempts", conn.ReconnectAttempts),
			)
		}
	}
}

// metricsHandler exposes a registry at /metrics.
func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

// serveMetrics serves the registry on addr until the returned stop function
// is called.
func serveMetrics(addr string, reg *prometheus.Registry, log logging.Logger) func() {
	srv := &http.Server{Addr: addr, Handler: metricsHandler(reg)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics listener stopped", logging.Err(err))
		}
	}()
	return func() { srv.Close() }
}

// transcriptPrinter appends transcript lines to a writer, reprinting a line
// when a revision changes its text.
type transcriptPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	seen map[string]string
}

func newTranscriptPrinter(w io.Writer) *transcriptPrinter {
	return &transcriptPrinter{w: w, seen: make(map[string]string)}
}

func (p *transcriptPrinter) render(segments []transcript.Segment) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, seg := range segments {
		prev, ok := p.seen[seg.AbsoluteStartTime]
		if ok && prev == seg.Text {
			continue
		}
		p.seen[seg.AbsoluteStartTime] = seg.Text

		marker := " "
		if ok {
			marker = "~"
		}
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "unknown"
		}
		fmt.Fprintf(p.w, "%s[%s] %s: %s\n", marker, formatSegmentTime(seg.AbsoluteStartTime), speaker, seg.Text)
	}
}

// formatSegmentTime shortens an RFC3339 timestamp to the clock time.
func formatSegmentTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}
