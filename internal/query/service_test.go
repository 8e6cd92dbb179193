package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/testutil"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewTestDB(t)
}

func uintPtr(v uint) *uint { return &v }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedOrders writes three orders around the 2024-03-10/11 day boundary.
func seedOrders(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&[]entities.CanonicalItem{
		{ID: 1, CanonicalName: "Latte", NormalizedName: "latte"},
		{ID: 2, CanonicalName: "Muffin", NormalizedName: "muffin"},
	}).Error)
	require.NoError(t, db.Create(&[]entities.CanonicalCategory{
		{ID: 1, CanonicalName: "Hot Drinks", NormalizedName: "hot drinks"},
		{ID: 2, CanonicalName: "Bakery", NormalizedName: "bakery"},
	}).Error)

	line := func(id, orderID string, item, category uint, qty int, price string) entities.OrderLineItem {
		return entities.OrderLineItem{
			LineItemID:          id,
			OrderID:             orderID,
			Name:                id,
			Quantity:            qty,
			UnitPrice:           money(price),
			CanonicalItemID:     uintPtr(item),
			CanonicalCategoryID: uintPtr(category),
		}
	}

	orders := []entities.Order{
		{
			OrderID: "o1", StoreID: "downtown", FulfillmentMethod: "delivery", Provider: "doordash",
			CreatedAt: time.Date(2024, 3, 10, 16, 30, 0, 0, time.UTC),
			Total:     money("10.00"), Tax: money("0.00"), Tip: money("0.00"),
			LineItems: []entities.OrderLineItem{
				line("o1-1", "o1", 1, 1, 2, "3.00"),
				line("o1-2", "o1", 2, 2, 1, "4.00"),
			},
		},
		{
			OrderID: "o2", StoreID: "uptown", FulfillmentMethod: "pickup", Provider: "ubereats",
			CreatedAt: time.Date(2024, 3, 10, 23, 59, 59, 999_000_000, time.UTC),
			Total:     money("6.00"), Tax: money("0.00"), Tip: money("0.00"),
			LineItems: []entities.OrderLineItem{
				line("o2-1", "o2", 1, 1, 2, "3.00"),
			},
		},
		{
			OrderID: "o3", StoreID: "downtown", FulfillmentMethod: "pickup", Provider: "doordash",
			CreatedAt: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			Total:     money("5.00"), Tax: money("1.00"), Tip: money("0.00"),
			LineItems: []entities.OrderLineItem{
				line("o3-1", "o3", 2, 2, 1, "4.00"),
			},
		},
	}
	require.NoError(t, db.Create(&orders).Error)
}

func newTestService(t *testing.T, db *gorm.DB, rec Recorder) *Service {
	t.Helper()
	return NewService(NewValidator(), newSQLiteCompiler(t), NewGormRunner(db), nil, ServiceConfig{Recorder: rec})
}

func TestService_RunAgainstSQLite(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedOrders(t, db)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		intent Intent
		want   []Row
	}{
		{
			name:   "revenue by location",
			intent: Intent{Metric: MetricRevenue, GroupBy: []Dimension{DimensionLocation}},
			want:   []Row{{"downtown", 15}, {"uptown", 6}},
		},
		{
			name: "date range includes the last instant of the end day",
			intent: Intent{
				Metric:  MetricRevenue,
				GroupBy: []Dimension{DimensionLocation},
				Filters: Filters{DateRange: &DateRange{Start: "2024-03-01", End: "2024-03-10"}},
			},
			want: []Row{{"downtown", 10}, {"uptown", 6}},
		},
		{
			name: "single day range starts at midnight",
			intent: Intent{
				Metric:  MetricOrders,
				GroupBy: []Dimension{DimensionLocation},
				Filters: Filters{DateRange: &DateRange{Start: "2024-03-11", End: "2024-03-11"}},
			},
			want: []Row{{"downtown", 1}},
		},
		{
			name:   "items sold by category",
			intent: Intent{Metric: MetricItemsSold, GroupBy: []Dimension{DimensionCategory}},
			want:   []Row{{"Hot Drinks", 4}, {"Bakery", 2}},
		},
		{
			name:   "revenue by product uses line totals",
			intent: Intent{Metric: MetricRevenue, GroupBy: []Dimension{DimensionProduct}},
			want:   []Row{{"Latte", 12}, {"Muffin", 8}},
		},
		{
			name: "orders per day ascending",
			intent: Intent{
				Metric: MetricOrders, GroupBy: []Dimension{DimensionDate},
				SortBy: SortByDate, SortOrder: SortAsc,
			},
			want: []Row{{"2024-03-10", 2}, {"2024-03-11", 1}},
		},
		{
			name: "hour buckets are labelled by day",
			intent: Intent{
				Metric: MetricOrders, GroupBy: []Dimension{DimensionHour},
				SortBy: SortByDate, SortOrder: SortAsc,
			},
			want: []Row{{"2024-03-10", 1}, {"2024-03-10", 1}, {"2024-03-11", 1}},
		},
		{
			name: "product filter with location grouping",
			intent: Intent{
				Metric:  MetricItemsSold,
				GroupBy: []Dimension{DimensionLocation},
				Filters: Filters{Products: []string{"Muffin"}},
			},
			want: []Row{{"downtown", 2}},
		},
		{
			name: "composite labels and limit",
			intent: Intent{
				Metric:    MetricPerItemRevenue,
				GroupBy:   []Dimension{DimensionProduct, DimensionLocation},
				SortBy:    SortByValue,
				SortOrder: SortDesc,
				Limit:     intPtr(1),
			},
			want: []Row{{"downtown - Muffin", 8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Run(ctx, &tt.intent)
			require.NoError(t, err)
			require.Len(t, res.Rows, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.Name, res.Rows[i].Name)
				assert.InDelta(t, want.Value, res.Rows[i].Value, 1e-9)
			}
		})
	}
}

func TestPlan_SQLRendersStatement(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	plan, err := newSQLiteCompiler(t).Compile(&Intent{
		Metric:  MetricItemsSold,
		GroupBy: []Dimension{DimensionCategory},
		Filters: Filters{Locations: []string{"downtown"}},
		Limit:   intPtr(5),
	})
	require.NoError(t, err)

	sql := plan.SQL(db)
	assert.Contains(t, sql, "FROM `order_line_items`")
	assert.Contains(t, sql, "JOIN orders ON orders.order_id = order_line_items.order_id")
	assert.Contains(t, sql, `orders.store_id IN ("downtown")`)
	assert.Contains(t, sql, "GROUP BY canonical_categories.canonical_name")
	assert.Contains(t, sql, "LIMIT 5")
	assert.True(t, plan.HasJoin("canonical_categories"))
	assert.False(t, plan.HasJoin("canonical_items"))
}

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	run   func(ctx context.Context, plan *Plan) ([]map[string]any, error)
}

func (f *fakeRunner) RunPlan(ctx context.Context, plan *Plan) ([]map[string]any, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.run == nil {
		return nil, nil
	}
	return f.run(ctx, plan)
}

type queryRecord struct {
	metric, status string
}

type fakeQueryRecorder struct {
	mu      sync.Mutex
	records []queryRecord
}

func (f *fakeQueryRecorder) RecordQuery(metric, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, queryRecord{metric, status})
}

func TestService_InvalidIntentNeverReachesStore(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	rec := &fakeQueryRecorder{}
	svc := NewService(nil, newSQLiteCompiler(t), runner, nil, ServiceConfig{Recorder: rec})

	_, err := svc.Run(context.Background(), &Intent{Metric: "unknown_metric", GroupBy: []Dimension{DimensionLocation}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidIntent)
	assert.Zero(t, runner.calls)
	assert.Equal(t, []queryRecord{{"unknown_metric", StatusInvalid}}, rec.records)
}

func TestService_Timeout(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{run: func(ctx context.Context, _ *Plan) ([]map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	rec := &fakeQueryRecorder{}
	svc := NewService(nil, newSQLiteCompiler(t), runner, nil, ServiceConfig{
		Timeout:  20 * time.Millisecond,
		Recorder: rec,
	})

	_, err := svc.Run(context.Background(), validIntent())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, errors.IsCategory(err, errors.CategoryTimeout))
	assert.Equal(t, []queryRecord{{"revenue", StatusTimeout}}, rec.records)
}

func TestService_CallerCancellation(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{run: func(ctx context.Context, _ *Plan) ([]map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc := NewService(nil, newSQLiteCompiler(t), runner, nil, ServiceConfig{Timeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx, validIntent())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}

func TestService_ExecutionErrorIsQueryCategory(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{run: func(context.Context, *Plan) ([]map[string]any, error) {
		return nil, errors.NewStd("no such table: orders")
	}}
	svc := NewService(nil, newSQLiteCompiler(t), runner, nil, ServiceConfig{})

	_, err := svc.Run(context.Background(), validIntent())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryQuery))
	assert.Contains(t, err.Error(), "no such table")
}

func TestService_PassesCompiledPlanToRunner(t *testing.T) {
	t.Parallel()

	var got *Plan
	runner := &fakeRunner{run: func(_ context.Context, plan *Plan) ([]map[string]any, error) {
		got = plan
		return []map[string]any{{ColumnLocation: "downtown", ColumnValue: "42.50"}}, nil
	}}
	svc := NewService(nil, newSQLiteCompiler(t), runner, nil, ServiceConfig{})

	res, err := svc.Run(context.Background(), validIntent())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "orders", got.Base)
	assert.Equal(t, MetricRevenue, res.Metric)
	assert.Equal(t, []Row{{Name: "downtown", Value: 42.5}}, res.Rows)
}
