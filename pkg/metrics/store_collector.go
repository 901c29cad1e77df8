package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

// StoreCollector exposes transcript store statistics as Prometheus metrics.
// It implements prometheus.Collector and reads the store on each scrape,
// ensuring up-to-date values.
type StoreCollector struct {
	store *transcript.Store

	segments *prometheus.Desc
	seeded   *prometheus.Desc
}

// NewStoreCollector creates a collector for the given transcript store.
// The meetingLabel distinguishes concurrent sessions.
func NewStoreCollector(store *transcript.Store, meetingLabel string) *StoreCollector {
	constLabels := prometheus.Labels{"meeting": meetingLabel}

	return &StoreCollector{
		store: store,
		segments: prometheus.NewDesc(
			prometheus.BuildFQName("meetscribe", "transcript", "segments"),
			"Number of distinct segments currently held in the store",
			nil,
			constLabels,
		),
		seeded: prometheus.NewDesc(
			prometheus.BuildFQName("meetscribe", "transcript", "seeded"),
			"Whether the store has been bootstrapped from a snapshot this session",
			nil,
			constLabels,
		),
	}
}

// Describe sends all metric descriptors to the channel.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.segments
	ch <- c.seeded
}

// Collect gathers current store statistics and sends them as metrics.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	if c.store == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.segments,
		prometheus.GaugeValue,
		float64(c.store.Len()),
	)

	seeded := 0.0
	if c.store.Seeded() {
		seeded = 1.0
	}
	ch <- prometheus.MustNewConstMetric(
		c.seeded,
		prometheus.GaugeValue,
		seeded,
	)
}

// RegisterStoreCollector creates and registers a store collector with the
// given registry. Returns the collector for potential unregistration.
func RegisterStoreCollector(store *transcript.Store, meetingLabel string, reg prometheus.Registerer) (*StoreCollector, error) {
	collector := NewStoreCollector(store, meetingLabel)
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return nil, err
		}
	}
	return collector, nil
}
