package query

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TotalName labels rows that carry no dimension value.
const TotalName = "Total"

// labelSeparator joins the parts of a composite row name.
const labelSeparator = " - "

// labelColumns is the fixed priority in which dimension values are composed
// into a row name, independent of the intent's group-by order.
var labelColumns = []string{
	ColumnLocation,
	ColumnProduct,
	ColumnCategory,
	ColumnFulfillment,
	ColumnProvider,
}

// timeLayouts are tried in order when a period column arrives as text.
var timeLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02 15:04",
	time.RFC3339Nano,
}

// Transform maps raw aggregation rows to {name, value} pairs.
func Transform(rows []map[string]any, groupBy []Dimension) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, Row{
			Name:  rowName(row, groupBy),
			Value: numeric(row[ColumnValue]),
		})
	}
	return out
}

func rowName(row map[string]any, groupBy []Dimension) string {
	if len(groupBy) == 0 {
		return TotalName
	}

	parts := make([]string, 0, len(labelColumns)+1)
	for _, col := range labelColumns {
		if s := text(row[col]); s != "" {
			parts = append(parts, s)
		}
	}
	if period := formatPeriod(row); period != "" {
		parts = append(parts, period)
	}
	if len(parts) == 0 {
		return TotalName
	}
	return strings.Join(parts, labelSeparator)
}

// formatPeriod renders the day of the date or hour bucket.
func formatPeriod(row map[string]any) string {
	for _, col := range []string{ColumnPeriod, ColumnPeriodHour} {
		switch v := row[col].(type) {
		case nil:
			continue
		case time.Time:
			return v.UTC().Format(time.DateOnly)
		default:
			s := text(v)
			if s == "" {
				continue
			}
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.Format(time.DateOnly)
				}
			}
			return s
		}
	}
	return ""
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// numeric coerces an aggregate to float64. Missing or non-numeric values
// become 0.
func numeric(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case uint:
		f = float64(t)
	case decimal.Decimal:
		f = t.InexactFloat64()
	case []byte:
		f = parseNumber(string(t))
	case string:
		f = parseNumber(t)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseNumber(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
