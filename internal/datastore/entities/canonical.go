package entities

import "time"

// EntityKind selects which canonical vocabulary a name belongs to.
type EntityKind string

const (
	KindItem     EntityKind = "item"
	KindCategory EntityKind = "category"
)

// String returns the kind name used in logs and metric labels.
func (k EntityKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known kinds.
func (k EntityKind) Valid() bool {
	return k == KindItem || k == KindCategory
}

// ResolutionMethod records how a raw name was tied to its canonical entity.
type ResolutionMethod string

const (
	MethodExact   ResolutionMethod = "exact"
	MethodFuzzy   ResolutionMethod = "fuzzy"
	MethodCreated ResolutionMethod = "created"
)

// CanonicalItem is the deduplicated representation of a menu item.
type CanonicalItem struct {
	ID             uint      `gorm:"primaryKey"`
	CanonicalName  string    `gorm:"size:255;not null"`
	NormalizedName string    `gorm:"size:255;not null;uniqueIndex:idx_canonical_items_normalized"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (CanonicalItem) TableName() string {
	return "canonical_items"
}

// CanonicalCategory is the deduplicated representation of a menu category.
type CanonicalCategory struct {
	ID             uint      `gorm:"primaryKey"`
	CanonicalName  string    `gorm:"size:255;not null"`
	NormalizedName string    `gorm:"size:255;not null;uniqueIndex:idx_canonical_categories_normalized"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (CanonicalCategory) TableName() string {
	return "canonical_categories"
}

// ItemNameMapping caches the resolution of one normalized raw item name.
type ItemNameMapping struct {
	ID                uint             `gorm:"primaryKey"`
	RawName           string           `gorm:"size:500;not null"`
	NormalizedRawName string           `gorm:"size:255;not null;uniqueIndex:idx_item_mappings_normalized"`
	CanonicalItemID   uint             `gorm:"not null;index"`
	Method            ResolutionMethod `gorm:"size:16;not null"`
	Confidence        float64          `gorm:"not null"`
	CreatedAt         time.Time        `gorm:"autoCreateTime"`

	CanonicalItem *CanonicalItem `gorm:"foreignKey:CanonicalItemID"`
}

// TableName returns the table name for GORM.
func (ItemNameMapping) TableName() string {
	return "item_name_mappings"
}

// CategoryNameMapping caches the resolution of one normalized raw category name.
type CategoryNameMapping struct {
	ID                    uint             `gorm:"primaryKey"`
	RawCategory           string           `gorm:"size:500;not null"`
	NormalizedRawCategory string           `gorm:"size:255;not null;uniqueIndex:idx_category_mappings_normalized"`
	CanonicalCategoryID   uint             `gorm:"not null;index"`
	Method                ResolutionMethod `gorm:"size:16;not null"`
	Confidence            float64          `gorm:"not null"`
	CreatedAt             time.Time        `gorm:"autoCreateTime"`

	CanonicalCategory *CanonicalCategory `gorm:"foreignKey:CanonicalCategoryID"`
}

// TableName returns the table name for GORM.
func (CategoryNameMapping) TableName() string {
	return "category_name_mappings"
}
