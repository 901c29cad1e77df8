package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

func TestStreamMetrics_NilSafe(t *testing.T) {
	var m *StreamMetrics
	// None of these may panic on a nil receiver.
	m.ObserveFrame("transcript.mutable")
	m.ObserveParseError()
	m.ObserveReconnect()
	m.ObserveMerged(3)
}

func TestStreamMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStreamMetrics(reg)

	m.ObserveFrame("transcript.mutable")
	m.ObserveFrame("transcript.mutable")
	m.ObserveFrame("pong")
	m.ObserveParseError()
	m.ObserveReconnect()
	m.ObserveMerged(5)
	m.ObserveMerged(0) // no-op

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range metric.GetLabel() {
				name += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
			}
			got[name] = metric.GetCounter().GetValue()
		}
	}

	assert.Equal(t, 2.0, got["meetscribe_stream_frames_total{type=transcript.mutable}"])
	assert.Equal(t, 1.0, got["meetscribe_stream_frames_total{type=pong}"])
	assert.Equal(t, 1.0, got["meetscribe_stream_parse_errors_total"])
	assert.Equal(t, 1.0, got["meetscribe_stream_reconnects_total"])
	assert.Equal(t, 5.0, got["meetscribe_transcript_segments_merged_total"])
}

func TestStoreCollector(t *testing.T) {
	store := transcript.NewStore(nil)
	store.Seed([]transcript.Segment{
		{AbsoluteStartTime: "t1", Text: "hello", RelativeStartTime: 1},
		{AbsoluteStartTime: "t2", Text: "world", RelativeStartTime: 2},
	})

	reg := prometheus.NewRegistry()
	_, err := RegisterStoreCollector(store, "google_meet/abc", reg)
	require.NoError(t, err)

	// Registering the same collector twice is tolerated.
	_, err = RegisterStoreCollector(store, "google_meet/abc", reg)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			got[mf.GetName()] = metric.GetGauge().GetValue()
		}
	}

	assert.Equal(t, 2.0, got["meetscribe_transcript_segments"])
	assert.Equal(t, 1.0, got["meetscribe_transcript_seeded"])
}
