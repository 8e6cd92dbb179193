package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/orderlens/internal/datastore/entities"
)

func TestOrderRepository_SaveAndGet(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	created := time.Date(2024, 3, 10, 18, 30, 0, 0, time.FixedZone("EET", 2*3600))
	order := &entities.Order{
		OrderID:           "ord-1",
		StoreID:           "downtown",
		FulfillmentMethod: "pickup",
		CreatedAt:         created,
		Tip:               decimal.RequireFromString("1.50"),
		Tax:               decimal.RequireFromString("0.80"),
		Total:             decimal.RequireFromString("12.30"),
		Provider:          "square",
	}
	require.NoError(t, repo.SaveOrder(ctx, order))

	item := &entities.OrderLineItem{
		LineItemID: "li-1",
		OrderID:    "ord-1",
		Name:       "Latte",
		Quantity:   2,
		UnitPrice:  decimal.RequireFromString("4.50"),
	}
	require.NoError(t, repo.SaveLineItem(ctx, item))
	require.NoError(t, repo.SaveOption(ctx, &entities.LineItemOption{
		LineItemID: "li-1",
		Name:       "Oat milk",
		Price:      decimal.RequireFromString("0.50"),
	}))

	got, err := repo.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "downtown", got.StoreID)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, decimal.RequireFromString("12.30").Equal(got.Total))
	require.Len(t, got.LineItems, 1)
	assert.Nil(t, got.LineItems[0].CanonicalItemID)
	require.Len(t, got.LineItems[0].Options, 1)
	assert.Equal(t, "Oat milk", got.LineItems[0].Options[0].Name)

	_, err = repo.GetOrder(ctx, "missing")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepository_DuplicateOrder(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	order := &entities.Order{OrderID: "ord-1", StoreID: "downtown", FulfillmentMethod: "delivery", CreatedAt: time.Now(), Provider: "toast"}
	require.NoError(t, repo.SaveOrder(ctx, order))

	dup := &entities.Order{OrderID: "ord-1", StoreID: "airport", FulfillmentMethod: "delivery", CreatedAt: time.Now(), Provider: "toast"}
	err := repo.SaveOrder(ctx, dup)
	require.ErrorIs(t, err, ErrDuplicateKey)

	count, err := repo.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOrderRepository_InvalidInput(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	require.ErrorIs(t, repo.SaveOrder(ctx, &entities.Order{}), ErrInvalidInput)
	require.ErrorIs(t, repo.SaveLineItem(ctx, &entities.OrderLineItem{LineItemID: "x"}), ErrInvalidInput)
	require.ErrorIs(t, repo.SaveOption(ctx, nil), ErrInvalidInput)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.True(t, IsDuplicateKey(ErrDuplicateKey))
	assert.False(t, IsDuplicateKey(ErrInvalidInput))
}
