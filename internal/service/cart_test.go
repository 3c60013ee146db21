package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartService(t *testing.T) (*CartService, *fakePublisher) {
	pub := &fakePublisher{}
	return &CartService{Repo: newTestRepo(t), Events: pub}, pub
}

func TestCartService_AddAndRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, pub := newCartService(t)
	user := seedUser(t, svc.Repo, "cart@example.com")
	p1 := seedProduct(t, svc.Repo, "p1", 10, 5)
	p2 := seedProduct(t, svc.Repo, "p2", 20, 5)

	_, err := svc.AddItem(ctx, user.ID, p1.ID, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, p2.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.TotalItems)
	assert.True(t, decimal.NewFromInt(40).Equal(cart.TotalPrice))
	require.Len(t, cart.Items, 2)
	assert.Equal(t, p1.ID, cart.Items[0].ProductID)
	require.NotNil(t, cart.Items[0].Product)

	cart, err = svc.UpdateItem(ctx, user.ID, p1.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.TotalItems)
	assert.True(t, decimal.NewFromInt(20).Equal(cart.TotalPrice))

	got, found, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, got.TotalItems)

	assert.Equal(t, []string{TopicCartEvents, TopicCartEvents, TopicCartEvents}, pub.topics())
}

func TestCartService_AddMergesAgainstStock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newCartService(t)
	user := seedUser(t, svc.Repo, "merge@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 3)

	_, err := svc.AddItem(ctx, user.ID, p.ID, 2)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, user.ID, p.ID, 2)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, p.ID, se.ProductID)
	assert.Equal(t, 4, se.Requested)
	assert.Equal(t, 3, se.Available)

	cart, err := svc.AddItem(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartService_AddErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newCartService(t)
	user := seedUser(t, svc.Repo, "errs@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 3)

	tests := []struct {
		name      string
		productID uuid.UUID
		quantity  int
		want      error
	}{
		{"zero quantity", p.ID, 0, ErrValidation},
		{"unknown product", uuid.New(), 1, ErrNotFound},
		{"over stock", p.ID, 4, ErrInsufficientStock},
	}
	for _, tt := range tests {
		_, err := svc.AddItem(ctx, user.ID, tt.productID, tt.quantity)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}

	_, found, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, found, "failed adds roll back the cart they created")
}

func TestCartService_GetCartMissing(t *testing.T) {
	t.Parallel()
	svc, _ := newCartService(t)

	cart, found, err := svc.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, cart)
}

func TestCartService_SetItems(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newCartService(t)
	user := seedUser(t, svc.Repo, "set@example.com")
	p1 := seedProduct(t, svc.Repo, "p1", 10, 5)
	p2 := seedProduct(t, svc.Repo, "p2", 20, 1)

	cart, err := svc.SetItems(ctx, user.ID, []transport.CartLine{
		{ProductID: p1.ID, Quantity: 1},
		{ProductID: p2.ID, Quantity: 1},
		{ProductID: p1.ID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 4, cart.TotalItems)
	assert.True(t, decimal.NewFromInt(50).Equal(cart.TotalPrice))

	_, err = svc.SetItems(ctx, user.ID, []transport.CartLine{
		{ProductID: p1.ID, Quantity: 1},
		{ProductID: p2.ID, Quantity: 2},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.SetItems(ctx, user.ID, []transport.CartLine{{ProductID: uuid.New(), Quantity: 1}})
	require.ErrorIs(t, err, ErrNotFound)

	got, _, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalItems, "failed replacements leave the cart untouched")

	cart, err = svc.SetItems(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, decimal.Zero.Equal(cart.TotalPrice))
}

func TestCartService_UpdateItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newCartService(t)
	user := seedUser(t, svc.Repo, "upd@example.com")
	p := seedProduct(t, svc.Repo, "p", 15, 4)

	_, err := svc.UpdateItem(ctx, user.ID, p.ID, 1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddItem(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateItem(ctx, user.ID, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.TotalItems)
	assert.True(t, decimal.NewFromInt(60).Equal(cart.TotalPrice))

	_, err = svc.UpdateItem(ctx, user.ID, p.ID, 5)
	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 4, se.Available)

	_, err = svc.UpdateItem(ctx, user.ID, uuid.New(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_Clear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newCartService(t)
	user := seedUser(t, svc.Repo, "clear@example.com")
	p := seedProduct(t, svc.Repo, "p", 15, 4)

	_, err := svc.Clear(ctx, user.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddItem(ctx, user.ID, p.ID, 2)
	require.NoError(t, err)

	cart, err := svc.Clear(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)

	got, found, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, got.Items)
	assert.Equal(t, 4, stockOf(t, svc.Repo, p.ID), "carts never hold stock")
}

func TestCartService_FirstAddsFromConcurrentRequests(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newCartService(t)
	user := seedUser(t, svc.Repo, "double-click@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddItem(ctx, user.ID, p.ID, 1)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	cart, found, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartService_CreateCartKeepsExistingCart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newCartService(t)
	user := seedUser(t, svc.Repo, "existing-cart@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 5)

	first := &models.Cart{UserID: user.ID, TotalPrice: decimal.Zero}
	require.NoError(t, svc.Repo.CreateCart(ctx, first))
	require.NoError(t, svc.Repo.CreateCart(ctx, &models.Cart{UserID: user.ID, TotalPrice: decimal.Zero}))

	cart, err := svc.AddItem(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, cart.ID)
}
