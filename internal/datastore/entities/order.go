package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fulfillment methods stored in Order.FulfillmentMethod. Ingest maps every
// provider spelling onto one of these.
const (
	FulfillmentDelivery = "delivery"
	FulfillmentPickup   = "pickup"
	FulfillmentDineIn   = "dine_in"
	FulfillmentUnknown  = "unknown"
)

// FulfillmentMethods returns every value an order can be stored with.
func FulfillmentMethods() []string {
	return []string{FulfillmentDelivery, FulfillmentPickup, FulfillmentDineIn, FulfillmentUnknown}
}

// Order is one ingested point-of-sale order.
// Money columns hold decimal currency rounded to two places.
type Order struct {
	OrderID           string          `gorm:"primaryKey;size:64"`
	StoreID           string          `gorm:"size:100;not null;index"`
	FulfillmentMethod string          `gorm:"size:32;not null;index"`
	CreatedAt         time.Time       `gorm:"not null;index;autoCreateTime:false"`
	Tip               decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax               decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Provider          string          `gorm:"size:32;not null;index"`

	LineItems []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (Order) TableName() string {
	return "orders"
}

// OrderLineItem is a single item on an order.
// The canonical IDs stay nil when resolution failed or no name was supplied.
type OrderLineItem struct {
	LineItemID          string          `gorm:"primaryKey;size:64"`
	OrderID             string          `gorm:"size:64;not null;index"`
	ItemID              string          `gorm:"size:64"`
	Name                string          `gorm:"size:500;not null"`
	Quantity            int             `gorm:"not null"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SpecialInstructions string          `gorm:"size:1000"`
	Category            string          `gorm:"size:255"`
	CanonicalItemID     *uint           `gorm:"index"`
	CanonicalCategoryID *uint           `gorm:"index"`

	Options []LineItemOption `gorm:"foreignKey:LineItemID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (OrderLineItem) TableName() string {
	return "order_line_items"
}

// LineItemOption is a modifier chosen on a line item, such as "extra shot".
type LineItemOption struct {
	ID         uint            `gorm:"primaryKey"`
	LineItemID string          `gorm:"size:64;not null;index"`
	Name       string          `gorm:"size:255;not null"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM.
func (LineItemOption) TableName() string {
	return "line_item_options"
}

// All returns every entity in migration order.
func All() []any {
	return []any{
		&CanonicalItem{},
		&CanonicalCategory{},
		&ItemNameMapping{},
		&CategoryNameMapping{},
		&Order{},
		&OrderLineItem{},
		&LineItemOption{},
	}
}
