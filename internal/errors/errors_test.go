package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderKeepsExplicitValues(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("insert failed for %s", "orders").
		Component("datastore").
		Category(CategoryDatabase).
		Priority("bogus").
		Context("table", "orders").
		Build()

	assert.Equal(t, "insert failed for orders", ee.Error())
	assert.Equal(t, "datastore", ee.GetComponent())
	assert.Equal(t, CategoryDatabase, ee.Category)
	assert.Equal(t, PriorityMedium, ee.GetPriority())
	assert.Equal(t, map[string]any{"table": "orders"}, ee.GetContext())
}

func TestWrappedCategoryIsInherited(t *testing.T) {
	SetTelemetryReporter(nil)

	inner := New(NewStd("duplicate")).Category(CategoryConflict).Build()
	outer := New(fmt.Errorf("create entity: %w", inner)).Build()

	assert.Equal(t, CategoryConflict, outer.Category)
	assert.True(t, Is(outer, inner))
}

func TestIsCategoryAndCategoryOf(t *testing.T) {
	sentinel := NewStd("not there")
	err := New(sentinel).Category(CategoryNotFound).Build()
	wrapped := fmt.Errorf("lookup: %w", err)

	assert.True(t, IsCategory(wrapped, CategoryNotFound))
	assert.False(t, IsCategory(wrapped, CategoryDatabase))
	assert.Equal(t, CategoryNotFound, CategoryOf(wrapped))
	assert.Equal(t, CategoryGeneric, CategoryOf(sentinel))
	assert.True(t, Is(wrapped, sentinel))
}

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) IsEnabled() bool { return true }

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func TestReportingPathDetectsCategory(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(fmt.Errorf("dial tcp: connection refused")).Component("datastore").Build()

	require.Len(t, reporter.reported, 1)
	assert.Equal(t, CategoryNetwork, ee.Category)
	assert.True(t, ee.IsReported())
}

func TestScrubMessageForPrivacy(t *testing.T) {
	scrubbed := scrubMessageForPrivacy("fetch https://pos.example.com/export?api_key=secret123&day=1 failed")
	assert.Equal(t, "fetch https://pos.example.com/export?[REDACTED] failed", scrubbed)

	scrubbed = scrubMessageForPrivacy("open orderlens:hunter2@tcp(db:3306)/orders: refused")
	assert.False(t, strings.Contains(scrubbed, "hunter2"))

	scrubbed = scrubMessageForPrivacy("config error: token=abc123 is invalid")
	assert.Contains(t, scrubbed, "[API_KEY_REDACTED]")
}

func TestGenerateErrorTitle(t *testing.T) {
	SetTelemetryReporter(nil)
	ee := New(NewStd("boom")).
		Component("query").
		Category(CategoryQuery).
		Context("operation", "run_plan").
		Build()

	assert.Equal(t, "Query Query Error Run Plan", generateErrorTitle(ee))
}

func TestErrorLevelPrefersPriority(t *testing.T) {
	SetTelemetryReporter(nil)

	tests := []struct {
		name     string
		category ErrorCategory
		priority string
		want     sentry.Level
	}{
		{"validation default", CategoryValidation, "", sentry.LevelInfo},
		{"network default", CategoryNetwork, "", sentry.LevelWarning},
		{"database default", CategoryDatabase, "", sentry.LevelError},
		{"critical database", CategoryDatabase, PriorityCritical, sentry.LevelFatal},
		{"low database", CategoryDatabase, PriorityLow, sentry.LevelInfo},
		{"high validation", CategoryValidation, PriorityHigh, sentry.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ee := New(NewStd("boom")).Category(tt.category).Priority(tt.priority).Build()
			assert.Equal(t, tt.want, getErrorLevel(ee))
		})
	}
}
