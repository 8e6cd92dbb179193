package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/query"
)

type fakeQueries struct {
	result *query.Result
	err    error
	got    *query.Intent
}

func (f *fakeQueries) Run(_ context.Context, intent *query.Intent) (*query.Result, error) {
	f.got = intent
	return f.result, f.err
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }

type planRows []map[string]any

func (p planRows) RunPlan(context.Context, *query.Plan) ([]map[string]any, error) {
	return p, nil
}

func newTestServer(t *testing.T, queries QueryRunner, health HealthChecker, opts ...ServerOption) *Server {
	t.Helper()
	s, err := New(DefaultConfig(), queries, health, opts...)
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

const revenueByLocation = `{"metric":"revenue","groupBy":["location"]}`

func TestHandleQuerySuccess(t *testing.T) {
	t.Parallel()

	queries := &fakeQueries{result: &query.Result{
		Metric:  query.MetricRevenue,
		GroupBy: []query.Dimension{query.DimensionLocation},
		Rows:    []query.Row{{Name: "downtown", Value: 42.5}},
	}}
	s := newTestServer(t, queries, fakeHealth{})

	rec := doRequest(s, http.MethodPost, "/api/v1/query", revenueByLocation)
	require.Equal(t, http.StatusOK, rec.Code)

	var body query.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, query.MetricRevenue, body.Metric)
	assert.Equal(t, []query.Row{{Name: "downtown", Value: 42.5}}, body.Rows)

	require.NotNil(t, queries.got)
	assert.Equal(t, []query.Dimension{query.DimensionLocation}, queries.got.GroupBy)
}

func TestHandleQueryMalformedBody(t *testing.T) {
	t.Parallel()

	queries := &fakeQueries{}
	s := newTestServer(t, queries, fakeHealth{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", "metric=revenue"},
		{"unknown field", `{"metric":"revenue","groupBy":["location"],"colour":"red"}`},
		{"trailing data", revenueByLocation + `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/v1/query", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Malformed query intent", resp.Message)
			assert.Len(t, resp.CorrelationID, 8)
		})
	}
	assert.Nil(t, queries.got, "malformed bodies must not reach the query service")
}

func TestHandleQueryErrorStatus(t *testing.T) {
	t.Parallel()

	build := func(category errors.ErrorCategory) error {
		return errors.Newf("boom").Component("query").Category(category).Build()
	}

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", build(errors.CategoryValidation), http.StatusBadRequest, "Invalid query intent"},
		{"timeout", build(errors.CategoryTimeout), http.StatusGatewayTimeout, "Query failed"},
		{"canceled", build(errors.CategoryCancellation), http.StatusServiceUnavailable, "Query failed"},
		{"execution", build(errors.CategoryQuery), http.StatusInternalServerError, "Query failed"},
		{"plain error", errors.NewStd("plain"), http.StatusInternalServerError, "Query failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, &fakeQueries{err: tt.err}, fakeHealth{})

			rec := doRequest(s, http.MethodPost, "/api/v1/query", revenueByLocation)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestHandleQueryValidationProblems(t *testing.T) {
	t.Parallel()

	svc := query.NewService(query.NewValidator(), mustCompiler(t), planRows{}, nil, query.ServiceConfig{})
	s := newTestServer(t, svc, fakeHealth{})

	rec := doRequest(s, http.MethodPost, "/api/v1/query", `{"metric":"x","groupBy":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Problems, `unknown metric "x"`)
	assert.Contains(t, resp.Problems, "groupBy must name at least one dimension")
}

func TestHandleQueryThroughService(t *testing.T) {
	t.Parallel()

	rows := planRows{
		{"store_id": "downtown", "value": 12.5, "count": int64(2)},
		{"store_id": "uptown", "value": "7.25", "count": int64(1)},
	}
	svc := query.NewService(query.NewValidator(), mustCompiler(t), rows, nil, query.ServiceConfig{})
	s := newTestServer(t, svc, fakeHealth{})

	rec := doRequest(s, http.MethodPost, "/api/v1/query", revenueByLocation)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"metric": "revenue",
		"groupBy": ["location"],
		"rows": [{"name": "downtown", "value": 12.5}, {"name": "uptown", "value": 7.25}]
	}`, rec.Body.String())
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, &fakeQueries{}, fakeHealth{})
		rec := doRequest(s, http.MethodGet, "/api/v1/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
	})

	t.Run("database down", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, &fakeQueries{}, fakeHealth{err: errors.NewStd("connection refused")})
		rec := doRequest(s, http.MethodGet, "/api/v1/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unreachable", resp.Database)
	})
}

func mustCompiler(t *testing.T) *query.Compiler {
	t.Helper()
	c, err := query.NewCompiler(query.DialectSQLite)
	require.NoError(t, err)
	return c
}
