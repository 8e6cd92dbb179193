package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueryMetrics tracks analytical query execution.
// It satisfies query.Recorder.
type QueryMetrics struct {
	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec

	collectors []prometheus.Collector
}

// NewQueryMetrics creates and registers the query metrics.
func NewQueryMetrics(registry prometheus.Registerer) (*QueryMetrics, error) {
	m := &QueryMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *QueryMetrics) initMetrics() {
	m.queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "queries_total",
			Help:      "Total number of analytical queries by outcome",
		},
		[]string{"metric", "status"}, // status: ok, invalid, error, timeout, canceled
	)

	m.queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Time taken to answer an analytical query",
			Buckets:   prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"metric"},
	)

	m.collectors = []prometheus.Collector{m.queriesTotal, m.queryDuration}
}

// Describe implements the Collector interface
func (m *QueryMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *QueryMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordQuery records one query outcome.
func (m *QueryMetrics) RecordQuery(metric, status string, duration time.Duration) {
	m.queriesTotal.WithLabelValues(metric, status).Inc()
	m.queryDuration.WithLabelValues(metric).Observe(duration.Seconds())
}
