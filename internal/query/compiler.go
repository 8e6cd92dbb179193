package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/orderlens/internal/errors"
)

// Supported SQL dialects.
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

// Result column aliases produced by compiled plans.
const (
	ColumnLocation    = "store_id"
	ColumnProduct     = "canonical_name"
	ColumnCategory    = "category_name"
	ColumnFulfillment = "fulfillment_method"
	ColumnProvider    = "provider"
	ColumnPeriod      = "period"
	ColumnPeriodHour  = "period_hour"
	ColumnValue       = "value"
	ColumnCount       = "count"
)

// ErrUnsupportedMetric is returned when a metric has no compiler descriptor.
var ErrUnsupportedMetric = errors.NewStd("unsupported metric")

// ErrUnsupportedDimension is returned when a dimension has no compiler descriptor.
var ErrUnsupportedDimension = errors.NewStd("unsupported dimension")

type relation int

const (
	relOrders relation = iota
	relLineItems
	relCanonicalItems
	relCanonicalCategories
)

var relationTables = map[relation]string{
	relOrders:              "orders",
	relLineItems:           "order_line_items",
	relCanonicalItems:      "canonical_items",
	relCanonicalCategories: "canonical_categories",
}

// joinOrder is the fixed order in which non-base relations are joined.
var joinOrder = []relation{relOrders, relLineItems, relCanonicalItems, relCanonicalCategories}

var joinClauses = map[relation]string{
	relCanonicalItems:      "JOIN canonical_items ON canonical_items.id = order_line_items.canonical_item_id",
	relCanonicalCategories: "JOIN canonical_categories ON canonical_categories.id = order_line_items.canonical_category_id",
}

type metricDescriptor struct {
	base relation
	// expr returns the aggregate given whether line items are part of the plan.
	expr func(lineItems bool) string
}

const lineRevenueExpr = "SUM(order_line_items.quantity * order_line_items.unit_price)"

var metricDescriptors = map[Metric]metricDescriptor{
	MetricRevenue: {
		base: relOrders,
		expr: func(lineItems bool) string {
			if lineItems {
				return lineRevenueExpr
			}
			return "SUM(orders.total)"
		},
	},
	MetricOrders: {
		base: relOrders,
		expr: func(bool) string { return "COUNT(DISTINCT orders.order_id)" },
	},
	MetricItemsSold: {
		base: relLineItems,
		expr: func(bool) string { return "SUM(order_line_items.quantity)" },
	},
	MetricPerItemRevenue: {
		base: relLineItems,
		expr: func(bool) string { return lineRevenueExpr },
	},
}

// dialectExprs holds the date truncation expressions of one SQL dialect.
type dialectExprs struct {
	day  string
	hour string
}

var dialects = map[string]dialectExprs{
	DialectSQLite: {
		day:  "strftime('%Y-%m-%d', orders.created_at)",
		hour: "strftime('%Y-%m-%d %H:00:00', orders.created_at)",
	},
	DialectMySQL: {
		day:  "DATE_FORMAT(orders.created_at, '%Y-%m-%d')",
		hour: "DATE_FORMAT(orders.created_at, '%Y-%m-%d %H:00:00')",
	},
}

type dimensionDescriptor struct {
	column   string
	expr     func(d dialectExprs) string
	requires []relation
}

func column(expr string) func(dialectExprs) string {
	return func(dialectExprs) string { return expr }
}

var dimensionDescriptors = map[Dimension]dimensionDescriptor{
	DimensionLocation: {
		column:   ColumnLocation,
		expr:     column("orders.store_id"),
		requires: []relation{relOrders},
	},
	DimensionProduct: {
		column:   ColumnProduct,
		expr:     column("canonical_items.canonical_name"),
		requires: []relation{relOrders, relLineItems, relCanonicalItems},
	},
	DimensionCategory: {
		column:   ColumnCategory,
		expr:     column("canonical_categories.canonical_name"),
		requires: []relation{relOrders, relLineItems, relCanonicalCategories},
	},
	DimensionDate: {
		column:   ColumnPeriod,
		expr:     func(d dialectExprs) string { return d.day },
		requires: []relation{relOrders},
	},
	DimensionHour: {
		column:   ColumnPeriodHour,
		expr:     func(d dialectExprs) string { return d.hour },
		requires: []relation{relOrders},
	},
	DimensionFulfillmentMethod: {
		column:   ColumnFulfillment,
		expr:     column("orders.fulfillment_method"),
		requires: []relation{relOrders},
	},
	DimensionProvider: {
		column:   ColumnProvider,
		expr:     column("orders.provider"),
		requires: []relation{relOrders},
	},
}

// filterDescriptor maps one list filter onto an IN condition.
type filterDescriptor struct {
	values   func(f *Filters) []string
	column   string
	requires []relation
}

var filterDescriptors = []filterDescriptor{
	{
		values:   func(f *Filters) []string { return f.Locations },
		column:   "orders.store_id",
		requires: []relation{relOrders},
	},
	{
		values:   func(f *Filters) []string { return f.FulfillmentMethods },
		column:   "orders.fulfillment_method",
		requires: []relation{relOrders},
	},
	{
		values:   func(f *Filters) []string { return f.Providers },
		column:   "orders.provider",
		requires: []relation{relOrders},
	},
	{
		values:   func(f *Filters) []string { return f.Categories },
		column:   "canonical_categories.canonical_name",
		requires: []relation{relLineItems, relCanonicalCategories},
	},
	{
		values:   func(f *Filters) []string { return f.Products },
		column:   "canonical_items.canonical_name",
		requires: []relation{relLineItems, relCanonicalItems},
	},
}

// Compiler turns validated intents into plans for one SQL dialect.
type Compiler struct {
	dialect string
	exprs   dialectExprs
}

// NewCompiler returns a compiler for the named dialect.
func NewCompiler(dialect string) (*Compiler, error) {
	exprs, ok := dialects[dialect]
	if !ok {
		return nil, errors.Newf("unsupported SQL dialect %q", dialect).
			Component("query").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &Compiler{dialect: dialect, exprs: exprs}, nil
}

// Dialect returns the compiler's SQL dialect.
func (c *Compiler) Dialect() string {
	return c.dialect
}

// Compile builds the plan for a validated intent.
func (c *Compiler) Compile(intent *Intent) (*Plan, error) {
	metric, ok := metricDescriptors[intent.Metric]
	if !ok {
		return nil, c.configError(fmt.Errorf("%w: %q", ErrUnsupportedMetric, intent.Metric), "metric", string(intent.Metric))
	}

	needed := map[relation]bool{metric.base: true}
	plan := &Plan{
		Metric:  intent.Metric,
		GroupBy: append([]Dimension(nil), intent.GroupBy...),
		Base:    relationTables[metric.base],
	}

	for _, d := range intent.GroupBy {
		desc, ok := dimensionDescriptors[d]
		if !ok {
			return nil, c.configError(fmt.Errorf("%w: %q", ErrUnsupportedDimension, d), "dimension", string(d))
		}
		expr := desc.expr(c.exprs)
		plan.Selects = append(plan.Selects, expr+" AS "+desc.column)
		plan.GroupExprs = append(plan.GroupExprs, expr)
		plan.Columns = append(plan.Columns, desc.column)
		for _, r := range desc.requires {
			needed[r] = true
		}
	}

	f := &intent.Filters
	if f.DateRange != nil {
		start, end, err := dayBounds(f.DateRange)
		if err != nil {
			return nil, err
		}
		plan.StartTime, plan.EndTime = start, end
		plan.Conditions = append(plan.Conditions, Condition{
			SQL:  "orders.created_at >= ? AND orders.created_at < ?",
			Args: []any{start, end},
		})
		needed[relOrders] = true
	}
	for _, fd := range filterDescriptors {
		values := fd.values(f)
		if len(values) == 0 {
			continue
		}
		plan.Conditions = append(plan.Conditions, Condition{
			SQL:  fd.column + " IN ?",
			Args: []any{values},
		})
		for _, r := range fd.requires {
			needed[r] = true
		}
	}
	// Canonical tables hang off line items.
	if needed[relCanonicalItems] || needed[relCanonicalCategories] {
		needed[relLineItems] = true
	}

	for _, r := range joinOrder {
		if r == metric.base || !needed[r] {
			continue
		}
		plan.Joins = append(plan.Joins, c.joinClause(metric.base, r))
	}

	plan.Selects = append(plan.Selects,
		metric.expr(needed[relLineItems])+" AS "+ColumnValue,
		"COUNT(*) AS "+ColumnCount,
	)

	plan.OrderBy = orderBy(intent)
	if intent.Limit != nil {
		plan.Limit = *intent.Limit
	}
	return plan, nil
}

func (c *Compiler) joinClause(base, r relation) string {
	switch {
	case r == relOrders && base == relLineItems:
		return "JOIN orders ON orders.order_id = order_line_items.order_id"
	case r == relLineItems && base == relOrders:
		return "JOIN order_line_items ON order_line_items.order_id = orders.order_id"
	default:
		return joinClauses[r]
	}
}

func (c *Compiler) configError(err error, key, value string) error {
	return errors.New(err).
		Component("query").
		Category(errors.CategoryConfiguration).
		Context(key, value).
		Context("dialect", c.dialect).
		Build()
}

// dayBounds returns the half-open UTC interval covering every instant of the
// inclusive day range.
func dayBounds(r *DateRange) (start, end time.Time, err error) {
	start, err = time.ParseInLocation(DateLayout, r.Start, time.UTC)
	if err != nil {
		return start, end, errors.New(fmt.Errorf("parse date_range.start: %w", err)).
			Component("query").
			Category(errors.CategoryValidation).
			Build()
	}
	last, err := time.ParseInLocation(DateLayout, r.End, time.UTC)
	if err != nil {
		return start, end, errors.New(fmt.Errorf("parse date_range.end: %w", err)).
			Component("query").
			Category(errors.CategoryValidation).
			Build()
	}
	return start, last.AddDate(0, 0, 1), nil
}

// orderBy resolves the sort column. Sorting by a dimension that is not
// grouped is a no-op.
func orderBy(intent *Intent) string {
	var col string
	switch intent.SortBy {
	case "", SortByValue:
		col = ColumnValue
	case SortByCount:
		col = ColumnCount
	case SortByName:
		switch {
		case intent.Groups(DimensionProduct):
			col = ColumnProduct
		case intent.Groups(DimensionCategory):
			col = ColumnCategory
		}
	case SortByDate:
		switch {
		case intent.Groups(DimensionDate):
			col = ColumnPeriod
		case intent.Groups(DimensionHour):
			col = ColumnPeriodHour
		}
	}
	if col == "" {
		return ""
	}
	order := SortDesc
	if intent.SortOrder != "" {
		order = intent.SortOrder
	}
	return col + " " + strings.ToUpper(string(order))
}
