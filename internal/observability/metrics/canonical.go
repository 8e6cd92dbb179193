package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CanonicalMetrics tracks canonical name resolution.
// It satisfies canonical.Recorder.
type CanonicalMetrics struct {
	resolutionsTotal          *prometheus.CounterVec
	resolutionDuration        *prometheus.HistogramVec
	resolutionErrorsTotal     *prometheus.CounterVec
	mappingWriteFailuresTotal *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewCanonicalMetrics creates and registers the resolver metrics.
func NewCanonicalMetrics(registry prometheus.Registerer) (*CanonicalMetrics, error) {
	m := &CanonicalMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CanonicalMetrics) initMetrics() {
	m.resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canonical",
			Name:      "resolutions_total",
			Help:      "Total number of resolved raw names",
		},
		[]string{"kind", "method"}, // method: exact, fuzzy, created
	)

	m.resolutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "canonical",
			Name:      "resolution_duration_seconds",
			Help:      "Time taken to resolve one raw name",
			Buckets:   prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount15),
		},
		[]string{"kind"},
	)

	m.resolutionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canonical",
			Name:      "resolution_errors_total",
			Help:      "Total number of failed resolutions",
		},
		[]string{"kind", "stage"},
	)

	m.mappingWriteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canonical",
			Name:      "mapping_write_failures_total",
			Help:      "Total number of resolutions whose name mapping could not be stored",
		},
		[]string{"kind"},
	)

	m.collectors = []prometheus.Collector{
		m.resolutionsTotal,
		m.resolutionDuration,
		m.resolutionErrorsTotal,
		m.mappingWriteFailuresTotal,
	}
}

// Describe implements the Collector interface
func (m *CanonicalMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *CanonicalMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordResolution records a successful resolution.
func (m *CanonicalMetrics) RecordResolution(kind, method string, duration time.Duration) {
	m.resolutionsTotal.WithLabelValues(kind, method).Inc()
	m.resolutionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordResolutionError records a failed resolution at stage.
func (m *CanonicalMetrics) RecordResolutionError(kind, stage string) {
	m.resolutionErrorsTotal.WithLabelValues(kind, stage).Inc()
}

// RecordMappingWriteFailure records a mapping that could not be stored.
func (m *CanonicalMetrics) RecordMappingWriteFailure(kind string) {
	m.mappingWriteFailuresTotal.WithLabelValues(kind).Inc()
}
