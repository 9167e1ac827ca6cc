package repository

import (
	"context"
	"storefront-api/internal/client"
	"storefront-api/internal/config"
	"storefront-api/internal/model"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.OpenDatabase(config.Database{
		Driver: "sqlite",
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestDecrementStockIfSufficient(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)
	require.NoError(t, repo.Seed(ctx))

	ok, err := repo.DecrementStockIfSufficient(ctx, nil, 3, 20)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStockIfSufficient(ctx, nil, 3, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DecrementStockIfSufficient(ctx, nil, 3, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.StockQuantity)

	_, err = repo.FindByID(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecrementStock_RolledBackWithTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)
	require.NoError(t, repo.Seed(ctx))

	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := repo.DecrementStockIfSufficient(ctx, tx, 1, 10)
		require.NoError(t, err)
		require.True(t, ok)

		p, err := repo.FindByIDForUpdate(ctx, tx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(90), p.StockQuantity)
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.StockQuantity)
}

func TestCart_GetOrCreateIsSingletonPerOwner(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewCartRepository(db)
	owner := model.CartOwner{UserID: 9}

	var wg sync.WaitGroup
	ids := make([]uint, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := repo.GetOrCreateActiveCart(ctx, owner)
			assert.NoError(t, err)
			if cart != nil {
				ids[i] = cart.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCart_GetOrCreatePropagatesStoreErrors(t *testing.T) {
	db := setupDB(t)
	repo := NewCartRepository(db)
	require.NoError(t, db.Migrator().DropTable(&model.CartLine{}, &model.Cart{}))

	cart, err := repo.GetOrCreateActiveCart(context.Background(), model.CartOwner{UserID: 9})
	assert.Nil(t, cart)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCart_UpsertAndDelete(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	require.NoError(t, NewProductRepository(db).Seed(ctx))
	repo := NewCartRepository(db)

	cart, err := repo.GetOrCreateActiveCart(ctx, model.CartOwner{GuestToken: "tok"})
	require.NoError(t, err)

	line := func(qty int64) *model.CartLine {
		return &model.CartLine{CartID: cart.ID, ProductID: 1, Quantity: qty, PricePerUnit: decimal.RequireFromString("50"), LineTotal: decimal.NewFromInt(50 * qty)}
	}
	require.NoError(t, repo.UpsertLine(ctx, line(1)))
	require.NoError(t, repo.UpsertLine(ctx, line(4)))

	got, err := repo.GetActiveCartWithLines(ctx, nil, model.CartOwner{GuestToken: "tok"})
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(4), got.Lines[0].Quantity)
	assert.Equal(t, "200.00", got.Lines[0].LineTotal.StringFixed(2))

	assert.ErrorIs(t, repo.DeleteLine(ctx, cart.ID, 2), ErrNotFound)
	require.NoError(t, repo.DeleteCart(ctx, nil, cart.ID))
	assert.ErrorIs(t, repo.DeleteCart(ctx, nil, cart.ID), ErrNotFound)

	_, err = repo.GetActiveCartWithLines(ctx, nil, model.CartOwner{GuestToken: "tok"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func newOrder(t *testing.T, db *gorm.DB, number string, status model.PaymentStatus) *model.Order {
	t.Helper()
	order := &model.Order{
		OrderNumber:       number,
		CustomerID:        1,
		DeliveryAddressID: 1,
		DeliveryOptionID:  1,
		OrderTotal:        decimal.RequireFromString("110.00"),
		PaymentMethod:     "card",
		PaymentStatus:     status,
		OrderStatus:       model.OrderStatusPending,
		OrderedAt:         time.Now(),
	}
	require.NoError(t, NewOrderRepository(db).Create(context.Background(), nil, order))
	return order
}

func TestOrder_PaymentTransitionsAreGuarded(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)
	order := newOrder(t, db, "ORD-1", model.PaymentStatusPendingGatewayPayment)

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			applied, err := repo.MarkPaid(ctx, order.ID, "txn-1", "{}")
			assert.NoError(t, err)
			results[i] = applied
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, ok := range results {
		if ok {
			applied++
		}
	}
	assert.Equal(t, 1, applied)

	got, err := repo.FindByOrderNumber(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, model.OrderStatusProcessing, got.OrderStatus)

	assert.ErrorIs(t, repo.MarkPaymentInitFailed(ctx, order.ID, "{}"), ErrNotFound)
}

func TestOrder_PaymentTransitionsIgnoreCashOnDelivery(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)
	order := newOrder(t, db, "ORD-COD", model.PaymentStatusUnpaid)

	applied, err := repo.MarkPaymentRejected(ctx, order.ID, model.PaymentStatusFailed, "{}")
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.MarkPaid(ctx, order.ID, "txn-1", "{}")
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.FindByOrderNumber(ctx, "ORD-COD")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusUnpaid, got.PaymentStatus)
	assert.Equal(t, model.OrderStatusPending, got.OrderStatus)
}

func TestOrder_NumberExistsAndFulfillment(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)
	order := newOrder(t, db, "ORD-2", model.PaymentStatusUnpaid)

	exists, err := repo.OrderNumberExists(ctx, nil, "ORD-2")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.OrderNumberExists(ctx, nil, "ORD-3")
	require.NoError(t, err)
	assert.False(t, exists)

	applied, err := repo.UpdateFulfillment(ctx, order.ID, model.OrderStatusProcessing, map[string]interface{}{"order_status": model.OrderStatusShipped})
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.UpdateFulfillment(ctx, order.ID, model.OrderStatusPending, map[string]interface{}{"order_status": model.OrderStatusCancelled})
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestPaymentNotification_Record(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewPaymentNotificationRepository(db)

	require.NoError(t, repo.Record(ctx, &model.PaymentNotification{Reference: "ORD-1", EventType: "charge.success", Outcome: "paid", HTTPStatus: 200}))
	require.NoError(t, repo.Record(ctx, &model.PaymentNotification{Reference: "ORD-1", EventType: "charge.success", Outcome: "duplicate", HTTPStatus: 200}))

	got, err := repo.ListByReference(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "paid", got[0].Outcome)
	assert.False(t, got[1].ReceivedAt.IsZero())
}
