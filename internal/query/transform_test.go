package query

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransform_ComposesNamesInFixedPriority(t *testing.T) {
	t.Parallel()

	rows := []map[string]any{
		{ColumnProduct: "Latte", ColumnLocation: "downtown", ColumnValue: 12.5},
	}
	// Group-by order does not change the label order.
	for _, groupBy := range [][]Dimension{
		{DimensionLocation, DimensionProduct},
		{DimensionProduct, DimensionLocation},
	} {
		got := Transform(rows, groupBy)
		assert.Equal(t, []Row{{Name: "downtown - Latte", Value: 12.5}}, got)
	}
}

func TestTransform_AllLabelParts(t *testing.T) {
	t.Parallel()

	row := map[string]any{
		ColumnLocation:    "downtown",
		ColumnProduct:     "Latte",
		ColumnCategory:    "Hot Drinks",
		ColumnFulfillment: "delivery",
		ColumnProvider:    "doordash",
		ColumnPeriod:      "2024-03-10",
		ColumnValue:       int64(3),
	}
	got := Transform([]map[string]any{row}, Dimensions)
	assert.Equal(t, "downtown - Latte - Hot Drinks - delivery - doordash - 2024-03-10", got[0].Name)
	assert.InDelta(t, 3.0, got[0].Value, 1e-9)
}

func TestTransform_TotalFallbacks(t *testing.T) {
	t.Parallel()

	rows := []map[string]any{{ColumnValue: 7.0}}
	assert.Equal(t, "Total", Transform(rows, nil)[0].Name)
	assert.Equal(t, "Total", Transform(rows, []Dimension{DimensionLocation})[0].Name)

	blank := []map[string]any{{ColumnLocation: "", ColumnProduct: nil, ColumnValue: 1}}
	assert.Equal(t, "Total", Transform(blank, []Dimension{DimensionLocation, DimensionProduct})[0].Name)

	// Dimension values are ignored when nothing is grouped.
	withDims := []map[string]any{{ColumnLocation: "downtown", ColumnValue: 1}}
	assert.Equal(t, "Total", Transform(withDims, []Dimension{})[0].Name)
}

func TestTransform_PeriodShowsDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  map[string]any
	}{
		{"sqlite day text", map[string]any{ColumnPeriod: "2024-03-10"}},
		{"sqlite hour text", map[string]any{ColumnPeriodHour: "2024-03-10 14:00:00"}},
		{"mysql bytes", map[string]any{ColumnPeriodHour: []byte("2024-03-10 09:00:00")}},
		{"driver time", map[string]any{ColumnPeriod: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Transform([]map[string]any{tt.row}, []Dimension{DimensionDate})
			assert.Equal(t, "2024-03-10", got[0].Name)
		})
	}
}

func TestTransform_CoercesValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"float", 1.5, 1.5},
		{"int64", int64(4), 4},
		{"decimal bytes", []byte("12.50"), 12.5},
		{"decimal string", "3.25", 3.25},
		{"decimal value", decimal.RequireFromString("9.99"), 9.99},
		{"missing", nil, 0},
		{"garbage", "n/a", 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Transform([]map[string]any{{ColumnValue: tt.value}}, nil)
			assert.InDelta(t, tt.want, got[0].Value, 1e-9)
		})
	}
}

func TestTransform_EmptyInput(t *testing.T) {
	t.Parallel()
	got := Transform(nil, []Dimension{DimensionLocation})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
