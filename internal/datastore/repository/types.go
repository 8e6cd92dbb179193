package repository

import (
	"time"

	"github.com/tphakala/orderlens/internal/datastore/entities"
)

// CanonicalEntity is the kind-agnostic view of a canonical item or category.
type CanonicalEntity struct {
	ID             uint
	Kind           entities.EntityKind
	CanonicalName  string
	NormalizedName string
	CreatedAt      time.Time
}

// NameMapping is the kind-agnostic view of an item or category name mapping.
type NameMapping struct {
	RawName           string
	NormalizedRawName string
	EntityID          uint
	Method            entities.ResolutionMethod
	Confidence        float64
	CreatedAt         time.Time
}

func itemToEntity(row *entities.CanonicalItem) *CanonicalEntity {
	return &CanonicalEntity{
		ID:             row.ID,
		Kind:           entities.KindItem,
		CanonicalName:  row.CanonicalName,
		NormalizedName: row.NormalizedName,
		CreatedAt:      row.CreatedAt,
	}
}

func categoryToEntity(row *entities.CanonicalCategory) *CanonicalEntity {
	return &CanonicalEntity{
		ID:             row.ID,
		Kind:           entities.KindCategory,
		CanonicalName:  row.CanonicalName,
		NormalizedName: row.NormalizedName,
		CreatedAt:      row.CreatedAt,
	}
}

func itemMappingToView(row *entities.ItemNameMapping) *NameMapping {
	return &NameMapping{
		RawName:           row.RawName,
		NormalizedRawName: row.NormalizedRawName,
		EntityID:          row.CanonicalItemID,
		Method:            row.Method,
		Confidence:        row.Confidence,
		CreatedAt:         row.CreatedAt,
	}
}

func categoryMappingToView(row *entities.CategoryNameMapping) *NameMapping {
	return &NameMapping{
		RawName:           row.RawCategory,
		NormalizedRawName: row.NormalizedRawCategory,
		EntityID:          row.CanonicalCategoryID,
		Method:            row.Method,
		Confidence:        row.Confidence,
		CreatedAt:         row.CreatedAt,
	}
}
