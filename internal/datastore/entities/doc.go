// Package entities defines the GORM entity models for the normalized order schema.
//
// # Canonical Vocabulary
//
//   - CanonicalItem / CanonicalCategory: deduplicated display names, unique on
//     their normalized form
//   - ItemNameMapping / CategoryNameMapping: one row per distinct normalized
//     raw name, pointing at the canonical entity it resolved to
//
// # Orders
//
//   - Order: one row per ingested order, keyed by the provider order ID
//   - OrderLineItem: line items, optionally linked to canonical entities
//   - LineItemOption: modifiers/options selected on a line item
//
// Canonical rows are never updated or deleted once written. All timestamps are
// stored in UTC.
package entities
