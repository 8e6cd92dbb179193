package query

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Condition is one parameterized WHERE clause.
type Condition struct {
	SQL  string
	Args []any
}

// Plan is a compiled aggregation. It holds SQL fragments only; Apply binds it
// to a GORM session.
type Plan struct {
	Metric  Metric
	GroupBy []Dimension
	// Base is the table the aggregation runs over.
	Base string
	// Selects lists dimension columns in group-by order, then value and count.
	Selects    []string
	Joins      []string
	Conditions []Condition
	GroupExprs []string
	// Columns are the dimension aliases in group-by order.
	Columns []string
	// OrderBy is empty when the requested sort does not apply.
	OrderBy string
	// Limit is zero when unbounded.
	Limit int

	// StartTime and EndTime bound the date filter as [StartTime, EndTime).
	StartTime time.Time
	EndTime   time.Time
}

// Apply builds the aggregation query on db.
func (p *Plan) Apply(db *gorm.DB) *gorm.DB {
	q := db.Table(p.Base).Select(strings.Join(p.Selects, ", "))
	for _, j := range p.Joins {
		q = q.Joins(j)
	}
	for _, c := range p.Conditions {
		q = q.Where(c.SQL, c.Args...)
	}
	if len(p.GroupExprs) > 0 {
		q = q.Group(strings.Join(p.GroupExprs, ", "))
	}
	if p.OrderBy != "" {
		q = q.Order(p.OrderBy)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	return q
}

// SQL renders the plan as a statement with inlined arguments, for display.
func (p *Plan) SQL(db *gorm.DB) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []map[string]any
		return p.Apply(tx).Find(&rows)
	})
}

// HasJoin reports whether the plan joins table.
func (p *Plan) HasJoin(table string) bool {
	for _, j := range p.Joins {
		if strings.HasPrefix(j, "JOIN "+table+" ") {
			return true
		}
	}
	return false
}
