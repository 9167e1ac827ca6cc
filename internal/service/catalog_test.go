package service

import (
	"context"
	"storefront-api/internal/model"
	"storefront-api/internal/pricing"
	"storefront-api/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_SetDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := Principal{UserID: 1, Role: RoleAdmin}
	oil := env.product(t, "Palm oil", "80.00", 10, 1)

	_, err := env.catalog.SetDiscount(ctx, Principal{UserID: 2, Role: RoleCustomer}, oil.ID,
		pricing.Discount{Type: pricing.DiscountPercentage, Value: mustDecimal("25")})
	assert.ErrorIs(t, err, ErrForbidden)

	view, err := env.catalog.SetDiscount(ctx, admin, oil.ID,
		pricing.Discount{Type: pricing.DiscountPercentage, Value: mustDecimal("25")})
	require.NoError(t, err)
	assert.True(t, view.DiscountActive)
	assert.Equal(t, "60.00", view.CurrentPrice.StringFixed(2))

	stored := env.reloadProduct(t, oil.ID)
	assert.Equal(t, "60.00", stored.DiscountPrice.Decimal.StringFixed(2))
	assert.Equal(t, "25.00", stored.DiscountPercentage.Decimal.StringFixed(2))

	_, err = env.catalog.SetDiscount(ctx, admin, oil.ID,
		pricing.Discount{Type: pricing.DiscountFixed, Value: mustDecimal("90.00")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	view, err = env.catalog.SetDiscount(ctx, admin, oil.ID, pricing.Discount{Type: pricing.DiscountNone})
	require.NoError(t, err)
	assert.False(t, view.DiscountActive)
	assert.Equal(t, "80.00", view.CurrentPrice.StringFixed(2))
	assert.False(t, env.reloadProduct(t, oil.ID).DiscountPrice.Valid)

	_, err = env.catalog.SetDiscount(ctx, admin, oil.ID+100, pricing.Discount{Type: pricing.DiscountNone})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalog_FutureDiscountIsNotApplied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	oil := env.product(t, "Palm oil", "80.00", 10, 1)
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	view, err := env.catalog.SetDiscount(ctx, Principal{Role: RoleAdmin}, oil.ID, pricing.Discount{
		Type:     pricing.DiscountFixed,
		Value:    mustDecimal("70.00"),
		StartsAt: &start,
		EndsAt:   &end,
	})
	require.NoError(t, err)
	assert.False(t, view.DiscountActive)
	assert.Equal(t, "80.00", view.CurrentPrice.StringFixed(2))
}

func TestCatalog_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	oil := env.product(t, "Palm oil", "80.00", 10, 1)
	retired := env.product(t, "Old stock", "5.00", 10, 1)
	require.NoError(t, env.db.Model(retired).Update("is_active", false).Error)

	products, err := env.catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, oil.ID, products[0].ID)

	got, err := env.catalog.GetProduct(ctx, oil.ID)
	require.NoError(t, err)
	assert.Equal(t, "80.00", got.CurrentPrice.StringFixed(2))

	_, err = env.catalog.GetProduct(ctx, retired.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalog_DiscountUpdateKeepsConcurrentStockDecrement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	oil := env.product(t, "Palm oil", "80.00", 10, 1)

	loaded, err := env.productRepo.FindByID(ctx, oil.ID)
	require.NoError(t, err)

	sold, err := env.productRepo.DecrementStockIfSufficient(ctx, nil, oil.ID, 10)
	require.NoError(t, err)
	require.True(t, sold)

	require.NoError(t, pricing.ApplyDiscount(loaded, pricing.Discount{Type: pricing.DiscountPercentage, Value: mustDecimal("25")}))
	require.NoError(t, env.productRepo.UpdateDiscount(ctx, loaded))

	stored := env.reloadProduct(t, oil.ID)
	assert.Zero(t, stored.StockQuantity)
	assert.Equal(t, "60.00", stored.DiscountPrice.Decimal.StringFixed(2))

	view, err := env.catalog.SetDiscount(ctx, Principal{UserID: 1, Role: RoleAdmin}, oil.ID, pricing.Discount{Type: pricing.DiscountNone})
	require.NoError(t, err)
	assert.Zero(t, view.StockQuantity)
	assert.Zero(t, env.reloadProduct(t, oil.ID).StockQuantity)

	missing := &model.Product{ID: oil.ID + 100}
	assert.ErrorIs(t, env.productRepo.UpdateDiscount(ctx, missing), repository.ErrNotFound)
}
