// Package ingest loads provider order exports into the store.
//
// An export document is parsed into orders, each order is written with its
// line items and options, and every line item's free-text item and category
// names are resolved to canonical entities on the way in. Orders are processed
// concurrently with a bounded worker count; failures are isolated per record.
package ingest
