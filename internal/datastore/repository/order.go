package repository

import (
	"context"

	"github.com/tphakala/orderlens/internal/datastore/entities"
)

// OrderRepository provides write access to orders, line items and options.
// Each method writes a single row so the ingestion pipeline can isolate
// failures per record.
type OrderRepository interface {
	// SaveOrder inserts an order without its line items.
	// Returns ErrDuplicateKey if the order ID already exists.
	SaveOrder(ctx context.Context, order *entities.Order) error

	// SaveLineItem inserts a line item without its options.
	// Returns ErrDuplicateKey if the line item ID already exists.
	SaveLineItem(ctx context.Context, item *entities.OrderLineItem) error

	// SaveOption inserts one line item option.
	SaveOption(ctx context.Context, option *entities.LineItemOption) error

	// GetOrder retrieves an order with its line items and options.
	// Returns ErrOrderNotFound if not found.
	GetOrder(ctx context.Context, orderID string) (*entities.Order, error)

	// CountOrders returns the number of stored orders.
	CountOrders(ctx context.Context) (int64, error)

	// CountLineItems returns the number of stored line items.
	CountLineItems(ctx context.Context) (int64, error)
}
