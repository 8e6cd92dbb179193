package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RegisterDatastoreMetrics exposes the connection pool statistics of db.
func RegisterDatastoreMetrics(registry prometheus.Registerer, db *sql.DB, dbName string) error {
	return registry.Register(collectors.NewDBStatsCollector(db, dbName))
}
