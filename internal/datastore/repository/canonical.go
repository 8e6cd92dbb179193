package repository

import (
	"context"

	"github.com/tphakala/orderlens/internal/datastore/entities"
)

// CanonicalRepository provides access to canonical entities and name mappings
// for both item and category vocabularies.
type CanonicalRepository interface {
	// FindMapping returns the mapping for a normalized raw name.
	// Returns ErrMappingNotFound if none exists.
	FindMapping(ctx context.Context, kind entities.EntityKind, normalizedRawName string) (*NameMapping, error)

	// CreateMappingIfAbsent inserts the mapping unless one already exists for
	// its normalized raw name. created is false when an existing row was kept.
	CreateMappingIfAbsent(ctx context.Context, kind entities.EntityKind, mapping *NameMapping) (created bool, err error)

	// ListEntities returns every canonical entity of kind in primary key order.
	ListEntities(ctx context.Context, kind entities.EntityKind) ([]*CanonicalEntity, error)

	// GetEntity retrieves a canonical entity by ID.
	// Returns ErrEntityNotFound if not found.
	GetEntity(ctx context.Context, kind entities.EntityKind, id uint) (*CanonicalEntity, error)

	// CreateEntityIfAbsent atomically inserts a canonical entity keyed by its
	// normalized name, or returns the existing row on conflict.
	// created reports whether this call inserted the row.
	CreateEntityIfAbsent(ctx context.Context, kind entities.EntityKind, canonicalName, normalizedName string) (entity *CanonicalEntity, created bool, err error)

	// CountEntities returns the number of canonical entities of kind.
	CountEntities(ctx context.Context, kind entities.EntityKind) (int64, error)

	// ListMappings returns all mappings of kind in creation order.
	ListMappings(ctx context.Context, kind entities.EntityKind) ([]*NameMapping, error)
}
