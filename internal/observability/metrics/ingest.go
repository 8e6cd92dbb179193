package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics tracks export ingestion.
// It satisfies ingest.Recorder.
type IngestMetrics struct {
	recordsTotal        *prometheus.CounterVec
	runsTotal           *prometheus.CounterVec
	runDuration         *prometheus.HistogramVec
	exportFetchesTotal  *prometheus.CounterVec
	exportFetchDuration prometheus.Histogram

	collectors []prometheus.Collector
}

// NewIngestMetrics creates and registers the ingestion metrics.
func NewIngestMetrics(registry prometheus.Registerer) (*IngestMetrics, error) {
	m := &IngestMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *IngestMetrics) initMetrics() {
	m.recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Total number of ingested records by outcome",
		},
		[]string{"record", "outcome"}, // record: order, line_item, option; outcome: saved, skipped, failed
	)

	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total number of ingest runs by status",
		},
		[]string{"provider", "status"},
	)

	m.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Time taken by one ingest run",
			Buckets:   prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount15),
		},
		[]string{"provider"},
	)

	m.exportFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "export_fetches_total",
			Help:      "Total number of export downloads by HTTP status",
		},
		[]string{"status"}, // HTTP status code, or "error" for transport failures
	)

	m.exportFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "export_fetch_duration_seconds",
			Help:      "Time taken to receive export response headers",
			Buckets:   prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount15),
		},
	)

	m.collectors = []prometheus.Collector{
		m.recordsTotal,
		m.runsTotal,
		m.runDuration,
		m.exportFetchesTotal,
		m.exportFetchDuration,
	}
}

// Describe implements the Collector interface
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordIngested records one order, line item or option outcome.
func (m *IngestMetrics) RecordIngested(record, outcome string) {
	m.recordsTotal.WithLabelValues(record, outcome).Inc()
}

// RecordIngestRun records a finished run.
func (m *IngestMetrics) RecordIngestRun(provider, status string, duration time.Duration) {
	m.runsTotal.WithLabelValues(provider, status).Inc()
	m.runDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveFetch records one export download. It matches the HTTP client's
// response hook signature.
func (m *IngestMetrics) ObserveFetch(_ *http.Request, resp *http.Response, err error, elapsed time.Duration) {
	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	m.exportFetchesTotal.WithLabelValues(status).Inc()
	m.exportFetchDuration.Observe(elapsed.Seconds())
}
