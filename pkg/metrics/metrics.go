// Package metrics provides Prometheus instrumentation for the streaming
// client and the transcript store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StreamMetrics holds counters for the streaming connection. All observe
// methods are nil-safe so instrumentation stays optional.
type StreamMetrics struct {
	FramesTotal         *prometheus.CounterVec
	ParseErrorsTotal    prometheus.Counter
	ReconnectsTotal     prometheus.Counter
	SegmentsMergedTotal prometheus.Counter
}

// NewStreamMetrics creates and registers stream metrics with the given
// registerer.
func NewStreamMetrics(reg prometheus.Registerer) *StreamMetrics {
	factory := promauto.With(reg)

	return &StreamMetrics{
		FramesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetscribe_stream_frames_total",
				Help: "Inbound stream frames by frame type",
			},
			[]string{"type"},
		),
		ParseErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meetscribe_stream_parse_errors_total",
				Help: "Inbound frames dropped because they could not be decoded",
			},
		),
		ReconnectsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meetscribe_stream_reconnects_total",
				Help: "Reconnect attempts scheduled after unexpected closes",
			},
		),
		SegmentsMergedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meetscribe_transcript_segments_merged_total",
				Help: "Segments inserted or overwritten in the transcript store",
			},
		),
	}
}

// ObserveFrame counts one inbound frame of the given type.
func (m *StreamMetrics) ObserveFrame(frameType string) {
	if m == nil {
		return
	}
	m.FramesTotal.WithLabelValues(frameType).Inc()
}

// ObserveParseError counts one dropped, undecodable frame.
func (m *StreamMetrics) ObserveParseError() {
	if m == nil {
		return
	}
	m.ParseErrorsTotal.Inc()
}

// ObserveReconnect counts one scheduled reconnect attempt.
func (m *StreamMetrics) ObserveReconnect() {
	if m == nil {
		return
	}
	m.ReconnectsTotal.Inc()
}

// ObserveMerged counts segments merged into the store.
func (m *StreamMetrics) ObserveMerged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SegmentsMergedTotal.Add(float64(n))
}
