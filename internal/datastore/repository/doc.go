// Package repository provides GORM-backed repositories for the normalized
// order schema and the canonical vocabulary.
//
// # Error Handling
//
// Repositories return sentinel errors (ErrMappingNotFound, ErrDuplicateKey,
// ...) instead of leaking GORM or driver errors, so callers can branch on
// errors.Is regardless of the backend in use.
//
// # Uniqueness
//
// Canonical entities and name mappings are unique on their normalized key.
// CreateEntityIfAbsent and CreateMappingIfAbsent issue a single
// INSERT ... ON CONFLICT DO NOTHING (ON DUPLICATE KEY UPDATE on MySQL) and
// read back the winning row when the insert lost, so two callers creating the
// same name concurrently always observe one row.
//
// # Thread Safety
//
// All repository methods are safe for concurrent use.
package repository
