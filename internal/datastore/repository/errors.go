package repository

import "github.com/tphakala/orderlens/internal/errors"

// Sentinel errors for repository operations.
var (
	// ErrMappingNotFound indicates no name mapping exists for the normalized key.
	ErrMappingNotFound = errors.NewStd("name mapping not found")

	// ErrEntityNotFound indicates the requested canonical entity does not exist.
	ErrEntityNotFound = errors.NewStd("canonical entity not found")

	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.NewStd("order not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrInvalidKind indicates an entity kind other than item or category.
	ErrInvalidKind = errors.NewStd("invalid entity kind")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")
)
