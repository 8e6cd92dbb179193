// Package canonical reconciles free-text item and category names from
// point-of-sale exports into a deduplicated canonical vocabulary.
//
// Resolution runs in four steps:
//
//  1. exact: the normalized raw name already has a mapping (in-process cache,
//     then the store)
//  2. fuzzy scan: every canonical entity of the kind is scored against the
//     normalized name with Similarity
//  3. the best candidate is accepted when its score reaches the threshold
//  4. otherwise a new canonical entity is created from a display name derived
//     from the raw string
//
// The store must provide an atomic insert-or-return-existing keyed on the
// normalized name; the Resolver holds no locks of its own.
package canonical
