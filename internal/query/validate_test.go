package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/orderlens/internal/errors"
)

func intPtr(v int) *int { return &v }

func validIntent() *Intent {
	return &Intent{
		Metric:  MetricRevenue,
		GroupBy: []Dimension{DimensionLocation},
	}
}

func TestValidator_AcceptsWellFormedIntent(t *testing.T) {
	t.Parallel()

	v := &Validator{
		Locations:          []string{"downtown", "uptown"},
		FulfillmentMethods: []string{"delivery", "pickup"},
		MaxLimit:           50,
	}
	intent := &Intent{
		Metric:  MetricItemsSold,
		GroupBy: []Dimension{DimensionProduct, DimensionDate},
		Filters: Filters{
			DateRange:          &DateRange{Start: "2024-03-01", End: "2024-03-10"},
			Locations:          []string{"downtown"},
			FulfillmentMethods: []string{"pickup"},
			Products:           []string{"Latte"},
		},
		Limit:     intPtr(50),
		SortBy:    SortByDate,
		SortOrder: SortAsc,
	}
	require.NoError(t, v.Validate(intent))
}

func TestValidator_RejectsUnknownMetric(t *testing.T) {
	t.Parallel()

	intent := validIntent()
	intent.Metric = "unknown_metric"

	err := NewValidator().Validate(intent)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidIntent)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{`unknown metric "unknown_metric"`}, verr.Problems)
}

func TestValidator_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	v := &Validator{
		Locations:          []string{"downtown"},
		FulfillmentMethods: []string{"delivery"},
		Providers:          []string{"doordash"},
		MaxLimit:           10,
	}

	tests := []struct {
		name    string
		mutate  func(*Intent)
		problem string
	}{
		{"missing metric", func(i *Intent) { i.Metric = "" }, "metric is required"},
		{"empty groupBy", func(i *Intent) { i.GroupBy = nil }, "groupBy must name at least one dimension"},
		{"unknown dimension", func(i *Intent) { i.GroupBy = []Dimension{"weekday"} }, `unknown dimension "weekday"`},
		{"repeated dimension", func(i *Intent) { i.GroupBy = []Dimension{DimensionDate, DimensionDate} }, `dimension "date" listed more than once`},
		{"zero limit", func(i *Intent) { i.Limit = intPtr(0) }, "limit must be between 1 and 10"},
		{"limit above max", func(i *Intent) { i.Limit = intPtr(11) }, "limit must be between 1 and 10"},
		{"unknown sortBy", func(i *Intent) { i.SortBy = "profit" }, `unknown sortBy "profit"`},
		{"unknown sortOrder", func(i *Intent) { i.SortOrder = "up" }, `unknown sortOrder "up"`},
		{"malformed start", func(i *Intent) {
			i.Filters.DateRange = &DateRange{Start: "03/01/2024", End: "2024-03-10"}
		}, `date_range.start "03/01/2024" is not a YYYY-MM-DD date`},
		{"end before start", func(i *Intent) {
			i.Filters.DateRange = &DateRange{Start: "2024-03-10", End: "2024-03-01"}
		}, "date_range.end is before date_range.start"},
		{"location outside set", func(i *Intent) { i.Filters.Locations = []string{"airport"} }, `locations value "airport" is not one of downtown`},
		{"fulfillment outside set", func(i *Intent) { i.Filters.FulfillmentMethods = []string{"drone"} }, `fulfillmentMethods value "drone" is not one of delivery`},
		{"provider outside set", func(i *Intent) { i.Filters.Providers = []string{"grubhub"} }, `providers value "grubhub" is not one of doordash`},
		{"blank product", func(i *Intent) { i.Filters.Products = []string{" "} }, "products contains an empty value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			intent := validIntent()
			tt.mutate(intent)

			err := v.Validate(intent)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Problems, tt.problem)
		})
	}
}

func TestValidator_SameDayRangeIsValid(t *testing.T) {
	t.Parallel()

	intent := validIntent()
	intent.Filters.DateRange = &DateRange{Start: "2024-03-10", End: "2024-03-10"}
	assert.NoError(t, NewValidator().Validate(intent))
}

func TestValidator_NilIntent(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, NewValidator().Validate(nil), ErrInvalidIntent)
}

func TestParseIntent(t *testing.T) {
	t.Parallel()

	intent, err := ParseIntent([]byte(`{
		"metric": "revenue",
		"groupBy": ["location", "product"],
		"filters": {"date_range": {"start": "2024-03-01", "end": "2024-03-10"}, "fulfillmentMethods": ["delivery"]},
		"limit": 5,
		"sortBy": "value",
		"sortOrder": "asc"
	}`))
	require.NoError(t, err)
	assert.Equal(t, MetricRevenue, intent.Metric)
	assert.Equal(t, []Dimension{DimensionLocation, DimensionProduct}, intent.GroupBy)
	require.NotNil(t, intent.Filters.DateRange)
	assert.Equal(t, "2024-03-10", intent.Filters.DateRange.End)
	assert.Equal(t, []string{"delivery"}, intent.Filters.FulfillmentMethods)
	require.NotNil(t, intent.Limit)
	assert.Equal(t, 5, *intent.Limit)
	assert.Equal(t, SortAsc, intent.SortOrder)
}

func TestParseIntent_RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	for name, input := range map[string]string{
		"unknown field": `{"metric": "revenue", "groupBy": ["location"], "having": "x"}`,
		"wrong type":    `{"metric": "revenue", "groupBy": "location"}`,
		"trailing data": `{"metric": "revenue", "groupBy": ["location"]} {}`,
		"not json":      `metric=revenue`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseIntent([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}
