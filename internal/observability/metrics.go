// Package observability provides Prometheus metrics for OrderLens.
package observability

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/orderlens/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
// Each instance owns its registry, so several may coexist.
type Metrics struct {
	registry  *prometheus.Registry
	Canonical *metrics.CanonicalMetrics
	Query     *metrics.QueryMetrics
	Ingest    *metrics.IngestMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register Go runtime metrics: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process metrics: %w", err)
	}

	canonicalMetrics, err := metrics.NewCanonicalMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create canonical metrics: %w", err)
	}

	queryMetrics, err := metrics.NewQueryMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create query metrics: %w", err)
	}

	ingestMetrics, err := metrics.NewIngestMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Canonical: canonicalMetrics,
		Query:     queryMetrics,
		Ingest:    ingestMetrics,
	}, nil
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDatastore exposes the connection pool statistics of db.
func (m *Metrics) RegisterDatastore(db *sql.DB, dbName string) error {
	if err := metrics.RegisterDatastoreMetrics(m.registry, db, dbName); err != nil {
		return fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
