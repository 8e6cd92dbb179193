package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewCanonicalMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordResolution("item", "created", time.Millisecond)
	m.RecordResolutionError("category", "create_entity")
	m.RecordResolutionError("category", "create_entity")
	m.RecordMappingWriteFailure("item")

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("item", "created")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.resolutionErrorsTotal.WithLabelValues("category", "create_entity")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.mappingWriteFailuresTotal.WithLabelValues("item")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.resolutionDuration))
}

func TestQueryMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewQueryMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordQuery("revenue", "ok", 10*time.Millisecond)
	m.RecordQuery("revenue", "timeout", 10*time.Second)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("revenue", "timeout")), 1e-9)
	assert.Equal(t, 2, testutil.CollectAndCount(m.queriesTotal))
}

func TestIngestMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewIngestMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordIngested("line_item", "failed")
	m.RecordIngestRun("doordash", "completed", time.Second)
	m.ObserveFetch(nil, &http.Response{StatusCode: http.StatusOK}, nil, 50*time.Millisecond)
	m.ObserveFetch(nil, nil, errors.New("connection reset"), time.Millisecond)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues("line_item", "failed")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("doordash", "completed")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.exportFetchesTotal.WithLabelValues("200")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.exportFetchesTotal.WithLabelValues("error")), 1e-9)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewQueryMetrics(registry)
	require.NoError(t, err)
	_, err = NewQueryMetrics(registry)
	require.Error(t, err)
}
