package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/errors"
)

// orderRepository implements OrderRepository.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// SaveOrder inserts an order row only.
func (r *orderRepository) SaveOrder(ctx context.Context, order *entities.Order) error {
	if order == nil || order.OrderID == "" {
		return ErrInvalidInput
	}
	order.CreatedAt = order.CreatedAt.UTC()

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
	if IsDuplicateKey(err) {
		return fmt.Errorf("order %s: %w", order.OrderID, ErrDuplicateKey)
	}
	return err
}

// SaveLineItem inserts a line item row only.
func (r *orderRepository) SaveLineItem(ctx context.Context, item *entities.OrderLineItem) error {
	if item == nil || item.LineItemID == "" || item.OrderID == "" {
		return ErrInvalidInput
	}

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
	if IsDuplicateKey(err) {
		return fmt.Errorf("line item %s: %w", item.LineItemID, ErrDuplicateKey)
	}
	return err
}

// SaveOption inserts one option row.
func (r *orderRepository) SaveOption(ctx context.Context, option *entities.LineItemOption) error {
	if option == nil || option.LineItemID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(option).Error
}

// GetOrder retrieves an order with line items and their options.
func (r *orderRepository) GetOrder(ctx context.Context, orderID string) (*entities.Order, error) {
	var order entities.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("line_item_id ASC") }).
		Preload("LineItems.Options").
		Where("order_id = ?", orderID).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CountOrders returns the total number of orders.
func (r *orderRepository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Order{}).Count(&count).Error
	return count, err
}

// CountLineItems returns the total number of line items.
func (r *orderRepository) CountLineItems(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.OrderLineItem{}).Count(&count).Error
	return count, err
}
