// Package query validates structured analytical intents, compiles them into
// aggregation plans over the normalized order schema and turns the result
// rows into {name, value} pairs for charting.
//
// Compilation is table-driven: every metric, dimension and filter kind maps to
// a fixed descriptor naming its SQL expression and the relations it needs.
// The compiler collects the required relations and emits joins in a fixed
// order, so no branch depends on combinations of flags.
package query
