package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/pricing"
	"github.com/lexacademy/checkout/internal/repository"
)

func newCartService() *CartService {
	return NewCartService(repository.NewInMemoryProductRepository(), repository.NewInMemoryCartRepository(), "guest-demo-user")
}

func TestCartService_AddItem(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	items, err := svc.AddItem(ctx, "u-1", "b-103", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b-103", items[0].ProductID)
	assert.Equal(t, 290.0, items[0].Price)
	assert.Equal(t, models.KindBook, items[0].Kind)
	require.NotNil(t, items[0].IsDigital)
	assert.False(t, *items[0].IsDigital)

	items, err = svc.AddItem(ctx, "u-1", "b-103", 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestCartService_AddItemErrors(t *testing.T) {
	svc := newCartService()

	_, err := svc.AddItem(context.Background(), "u-1", "b-101", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(context.Background(), "u-1", "b-101", pricing.MaxQuantity+1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(context.Background(), "u-1", "nope", 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestCartService_AnonymousSharesDemoCart(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	assert.Equal(t, "guest-demo-user", svc.Owner(""))
	assert.Equal(t, "u-1", svc.Owner("u-1"))

	_, err := svc.AddItem(ctx, "", "c-201", 1)
	require.NoError(t, err)

	items, err := svc.Read(ctx, "guest-demo-user")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, svc.Clear(ctx, ""))
	items, err = svc.Read(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}
