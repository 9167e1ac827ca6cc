package service

import (
	"context"
	"storefront-api/internal/model"
	"storefront-api/internal/pricing"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddMergesAndSnapshotsPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := model.CartOwner{UserID: 7}
	tomatoes := env.product(t, "Tomatoes", "50.00", 10, 1)

	_, err := env.carts.AddLine(ctx, owner, tomatoes.ID, 2)
	require.NoError(t, err)
	cart, err := env.carts.AddLine(ctx, owner, tomatoes.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(5), cart.Lines[0].Quantity)
	assert.Equal(t, "50.00", cart.Lines[0].PricePerUnit.StringFixed(2))
	assert.Equal(t, "250.00", cart.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, "kg", cart.Lines[0].UnitOfMeasure)
	assert.Equal(t, "250.00", cart.Total().StringFixed(2))
}

func TestCart_GuestToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	guest := model.CartOwner{GuestToken: "guest-abc"}
	tomatoes := env.product(t, "Tomatoes", "50.00", 10, 1)

	_, err := env.carts.AddLine(ctx, guest, tomatoes.ID, 1)
	require.NoError(t, err)

	cart, err := env.carts.GetCart(ctx, guest)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	require.NotNil(t, cart.GuestToken)
	assert.Equal(t, "guest-abc", *cart.GuestToken)

	other, err := env.carts.GetCart(ctx, model.CartOwner{GuestToken: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, other.Lines)
}

func TestCart_QuantityRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := model.CartOwner{UserID: 7}
	yam := env.product(t, "Yam tuber", "1200.00", 6, 2)

	_, err := env.carts.AddLine(ctx, owner, yam.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = env.carts.AddLine(ctx, owner, yam.ID, 1)
	assert.ErrorIs(t, err, pricing.ErrBelowMinimumOrder)

	_, err = env.carts.AddLine(ctx, owner, yam.ID, 7)
	assert.ErrorIs(t, err, pricing.ErrProductUnavailable)

	_, err = env.carts.AddLine(ctx, owner, yam.ID+100, 2)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = env.carts.AddLine(ctx, model.CartOwner{}, yam.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	cart, err := env.carts.AddLine(ctx, owner, yam.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cart.Lines[0].Quantity)

	_, err = env.carts.AddLine(ctx, owner, yam.ID, 3)
	assert.ErrorIs(t, err, pricing.ErrProductUnavailable, "merged quantity exceeds stock")
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := model.CartOwner{UserID: 7}
	tomatoes := env.product(t, "Tomatoes", "50.00", 10, 1)
	oil := env.product(t, "Palm oil", "1850.50", 10, 1)

	_, err := env.carts.UpdateLine(ctx, owner, tomatoes.ID, 2)
	assert.ErrorIs(t, err, ErrCartLineNotFound)

	_, err = env.carts.AddLine(ctx, owner, tomatoes.ID, 2)
	require.NoError(t, err)
	_, err = env.carts.AddLine(ctx, owner, oil.ID, 1)
	require.NoError(t, err)

	cart, err := env.carts.UpdateLine(ctx, owner, tomatoes.ID, 6)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(6), cart.Lines[0].Quantity)
	assert.Equal(t, "300.00", cart.Lines[0].LineTotal.StringFixed(2))

	_, err = env.carts.UpdateLine(ctx, owner, oil.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	cart, err = env.carts.RemoveLine(ctx, owner, oil.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)

	_, err = env.carts.RemoveLine(ctx, owner, oil.ID)
	assert.ErrorIs(t, err, ErrCartLineNotFound)

	require.NoError(t, env.carts.Clear(ctx, owner))
	require.NoError(t, env.carts.Clear(ctx, owner))
	assert.Zero(t, env.count(t, &model.Cart{}))
	assert.Zero(t, env.count(t, &model.CartLine{}))
}
