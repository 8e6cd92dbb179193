package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/errors"
)

const (
	columnNormalizedName        = "normalized_name"
	columnNormalizedRawName     = "normalized_raw_name"
	columnNormalizedRawCategory = "normalized_raw_category"
)

// canonicalRepository implements CanonicalRepository.
type canonicalRepository struct {
	db *gorm.DB
}

// NewCanonicalRepository creates a new CanonicalRepository.
func NewCanonicalRepository(db *gorm.DB) CanonicalRepository {
	return &canonicalRepository{db: db}
}

// FindMapping retrieves the mapping for a normalized raw name.
func (r *canonicalRepository) FindMapping(ctx context.Context, kind entities.EntityKind, normalizedRawName string) (*NameMapping, error) {
	switch kind {
	case entities.KindItem:
		var row entities.ItemNameMapping
		err := r.db.WithContext(ctx).
			Where(columnNormalizedRawName+" = ?", normalizedRawName).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMappingNotFound
		}
		if err != nil {
			return nil, err
		}
		return itemMappingToView(&row), nil

	case entities.KindCategory:
		var row entities.CategoryNameMapping
		err := r.db.WithContext(ctx).
			Where(columnNormalizedRawCategory+" = ?", normalizedRawName).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMappingNotFound
		}
		if err != nil {
			return nil, err
		}
		return categoryMappingToView(&row), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

// CreateMappingIfAbsent inserts the mapping, keeping any existing row.
func (r *canonicalRepository) CreateMappingIfAbsent(ctx context.Context, kind entities.EntityKind, mapping *NameMapping) (bool, error) {
	if mapping == nil || mapping.NormalizedRawName == "" || mapping.EntityID == 0 {
		return false, ErrInvalidInput
	}

	switch kind {
	case entities.KindItem:
		row := entities.ItemNameMapping{
			RawName:           mapping.RawName,
			NormalizedRawName: mapping.NormalizedRawName,
			CanonicalItemID:   mapping.EntityID,
			Method:            mapping.Method,
			Confidence:        mapping.Confidence,
		}
		return insertIgnoringConflict(ctx, r.db, &row, columnNormalizedRawName, mapping.NormalizedRawName)

	case entities.KindCategory:
		row := entities.CategoryNameMapping{
			RawCategory:           mapping.RawName,
			NormalizedRawCategory: mapping.NormalizedRawName,
			CanonicalCategoryID:   mapping.EntityID,
			Method:                mapping.Method,
			Confidence:            mapping.Confidence,
		}
		return insertIgnoringConflict(ctx, r.db, &row, columnNormalizedRawCategory, mapping.NormalizedRawName)
	}

	return false, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

// ListEntities returns all canonical entities of kind ordered by ID.
func (r *canonicalRepository) ListEntities(ctx context.Context, kind entities.EntityKind) ([]*CanonicalEntity, error) {
	switch kind {
	case entities.KindItem:
		var rows []entities.CanonicalItem
		if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		result := make([]*CanonicalEntity, 0, len(rows))
		for i := range rows {
			result = append(result, itemToEntity(&rows[i]))
		}
		return result, nil

	case entities.KindCategory:
		var rows []entities.CanonicalCategory
		if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		result := make([]*CanonicalEntity, 0, len(rows))
		for i := range rows {
			result = append(result, categoryToEntity(&rows[i]))
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

// GetEntity retrieves a canonical entity by ID.
func (r *canonicalRepository) GetEntity(ctx context.Context, kind entities.EntityKind, id uint) (*CanonicalEntity, error) {
	switch kind {
	case entities.KindItem:
		var row entities.CanonicalItem
		err := r.db.WithContext(ctx).First(&row, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		if err != nil {
			return nil, err
		}
		return itemToEntity(&row), nil

	case entities.KindCategory:
		var row entities.CanonicalCategory
		err := r.db.WithContext(ctx).First(&row, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		if err != nil {
			return nil, err
		}
		return categoryToEntity(&row), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

// CreateEntityIfAbsent inserts a canonical entity or returns the existing one.
func (r *canonicalRepository) CreateEntityIfAbsent(ctx context.Context, kind entities.EntityKind, canonicalName, normalizedName string) (*CanonicalEntity, bool, error) {
	if canonicalName == "" || normalizedName == "" {
		return nil, false, ErrInvalidInput
	}

	switch kind {
	case entities.KindItem:
		row := entities.CanonicalItem{CanonicalName: canonicalName, NormalizedName: normalizedName}
		created, err := insertIgnoringConflict(ctx, r.db, &row, columnNormalizedName, normalizedName)
		if err != nil {
			return nil, false, err
		}
		return itemToEntity(&row), created, nil

	case entities.KindCategory:
		row := entities.CanonicalCategory{CanonicalName: canonicalName, NormalizedName: normalizedName}
		created, err := insertIgnoringConflict(ctx, r.db, &row, columnNormalizedName, normalizedName)
		if err != nil {
			return nil, false, err
		}
		return categoryToEntity(&row), created, nil
	}

	return nil, false, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

// CountEntities returns the number of canonical entities of kind.
func (r *canonicalRepository) CountEntities(ctx context.Context, kind entities.EntityKind) (int64, error) {
	var model any
	switch kind {
	case entities.KindItem:
		model = &entities.CanonicalItem{}
	case entities.KindCategory:
		model = &entities.CanonicalCategory{}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	var count int64
	err := r.db.WithContext(ctx).Model(model).Count(&count).Error
	return count, err
}

// ListMappings returns all mappings of kind ordered by ID.
func (r *canonicalRepository) ListMappings(ctx context.Context, kind entities.EntityKind) ([]*NameMapping, error) {
	switch kind {
	case entities.KindItem:
		var rows []entities.ItemNameMapping
		if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		result := make([]*NameMapping, 0, len(rows))
		for i := range rows {
			result = append(result, itemMappingToView(&rows[i]))
		}
		return result, nil

	case entities.KindCategory:
		var rows []entities.CategoryNameMapping
		if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		result := make([]*NameMapping, 0, len(rows))
		for i := range rows {
			result = append(result, categoryMappingToView(&rows[i]))
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

// insertIgnoringConflict inserts row unless a row with the same key exists
// in keyColumn. When the insert loses, row is overwritten with the stored
// winner and created is false.
func insertIgnoringConflict[T any](ctx context.Context, db *gorm.DB, row *T, keyColumn, key string) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: keyColumn}},
			DoNothing: true,
		}).
		Create(row)

	if result.Error != nil && !IsDuplicateKey(result.Error) {
		return false, result.Error
	}
	if result.Error == nil && result.RowsAffected > 0 {
		return true, nil
	}

	// Another writer owns the key; read its row back.
	var existing T
	if err := db.WithContext(ctx).Where(keyColumn+" = ?", key).Take(&existing).Error; err != nil {
		if result.Error != nil {
			return false, result.Error
		}
		return false, err
	}
	*row = existing
	return false, nil
}
