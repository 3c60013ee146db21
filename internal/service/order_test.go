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

func validShipping() transport.ShippingInfo {
	return transport.ShippingInfo{
		Name:  "Jane Doe",
		Phone: "9876543210",
		Address: transport.Address{
			House:   "12 Baker St",
			City:    "London",
			State:   "Greater London",
			Pincode: "560001",
		},
	}
}

func newOrderService(t *testing.T) (*OrderService, *fakePublisher) {
	pub := &fakePublisher{}
	return &OrderService{Repo: newTestRepo(t), Events: pub}, pub
}

func TestOrderService_PlaceOrderFromItems(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, pub := newOrderService(t)
	user := seedUser(t, svc.Repo, "buyer@example.com")
	p1 := seedProduct(t, svc.Repo, "p1", 10, 5)
	p2 := seedProduct(t, svc.Repo, "p2", 20, 5)

	order, err := svc.PlaceOrder(ctx, user.ID, transport.PlaceOrderRequest{
		Items: []transport.CartLine{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 1},
		},
		Shipping: validShipping(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, user.Email, order.Email)
	assert.Equal(t, 3, order.TotalItems)
	assert.True(t, decimal.NewFromInt(40).Equal(order.TotalPrice))
	require.Len(t, order.Items, 2)
	assert.True(t, decimal.NewFromInt(10).Equal(order.Items[0].UnitPrice))
	assert.Equal(t, "560001", order.Shipping.Address.Pincode)

	assert.Equal(t, 3, stockOf(t, svc.Repo, p1.ID))
	assert.Equal(t, 4, stockOf(t, svc.Repo, p2.ID))
	assert.Equal(t, []string{TopicOrderEvents}, pub.topics())
}

func TestOrderService_PlaceOrderFromCart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newOrderService(t)
	carts := &CartService{Repo: svc.Repo}
	user := seedUser(t, svc.Repo, "cartbuyer@example.com")
	p := seedProduct(t, svc.Repo, "p", 25, 3)

	_, err := svc.PlaceOrder(ctx, user.ID, transport.PlaceOrderRequest{Shipping: validShipping()})
	require.ErrorIs(t, err, ErrValidation, "no cart yet")

	_, err = carts.AddItem(ctx, user.ID, p.ID, 2)
	require.NoError(t, err)

	order, err := svc.PlaceOrder(ctx, user.ID, transport.PlaceOrderRequest{Shipping: validShipping()})
	require.NoError(t, err)
	assert.Equal(t, 2, order.TotalItems)
	assert.True(t, decimal.NewFromInt(50).Equal(order.TotalPrice))
	assert.Equal(t, 1, stockOf(t, svc.Repo, p.ID))

	cart, found, err := carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found, "the cart is emptied, not deleted")
	assert.Empty(t, cart.Items)

	_, err = svc.PlaceOrder(ctx, user.ID, transport.PlaceOrderRequest{Shipping: validShipping()})
	require.ErrorIs(t, err, ErrValidation, "empty cart")
}

func TestOrderService_PlaceOrderInsufficientStock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, pub := newOrderService(t)
	user := seedUser(t, svc.Repo, "short@example.com")
	plenty := seedProduct(t, svc.Repo, "plenty", 5, 10)
	scarce := seedProduct(t, svc.Repo, "scarce", 5, 1)

	_, err := svc.PlaceOrder(ctx, user.ID, transport.PlaceOrderRequest{
		Items: []transport.CartLine{
			{ProductID: plenty.ID, Quantity: 3},
			{ProductID: scarce.ID, Quantity: 2},
		},
		Shipping: validShipping(),
	})
	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, scarce.ID, se.ProductID)
	assert.Equal(t, 2, se.Requested)
	assert.Equal(t, 1, se.Available)

	assert.Equal(t, 10, stockOf(t, svc.Repo, plenty.ID), "earlier lines roll back")
	assert.Equal(t, 1, stockOf(t, svc.Repo, scarce.ID))
	total, _, err := svc.ListOrders(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pub.topics())

	_, err = svc.PlaceOrder(ctx, user.ID, transport.PlaceOrderRequest{
		Items:    []transport.CartLine{{ProductID: uuid.New(), Quantity: 1}},
		Shipping: validShipping(),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_PlaceOrderFromCartInsufficientStock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, pub := newOrderService(t)
	carts := &CartService{Repo: svc.Repo}
	catalog := &CatalogService{Repo: svc.Repo}
	user := seedUser(t, svc.Repo, "cartshort@example.com")
	p1 := seedProduct(t, svc.Repo, "p1", 10, 5)
	p2 := seedProduct(t, svc.Repo, "p2", 20, 5)

	_, err := carts.AddItem(ctx, user.ID, p1.ID, 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, user.ID, p2.ID, 1)
	require.NoError(t, err)

	zero := 0
	_, err = catalog.Patch(ctx, p2.ID, transport.PatchProductRequest{Stock: &zero})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, user.ID, transport.PlaceOrderRequest{Shipping: validShipping()})
	require.ErrorIs(t, err, ErrInsufficientStock)
	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, p2.ID, se.ProductID)

	assert.Equal(t, 5, stockOf(t, svc.Repo, p1.ID), "earlier lines roll back")
	assert.Equal(t, 0, stockOf(t, svc.Repo, p2.ID))

	stored, err := svc.Repo.GetCartByUser(ctx, user.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalItems)
	assert.True(t, decimal.NewFromInt(40).Equal(stored.TotalPrice))

	cart, found, err := carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, cart.Items, 2, "the cart keeps its lines")
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 1, cart.Items[1].Quantity)

	total, _, err := svc.ListOrders(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pub.topics())
}

func TestOrderService_ConcurrentLastUnit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newOrderService(t)
	p := seedProduct(t, svc.Repo, "last", 99, 1)
	buyers := []*models.User{
		seedUser(t, svc.Repo, "a@example.com"),
		seedUser(t, svc.Repo, "b@example.com"),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	for i, u := range buyers {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(ctx, u.ID, transport.PlaceOrderRequest{
				Items:    []transport.CartLine{{ProductID: p.ID, Quantity: 1}},
				Shipping: validShipping(),
			})
		}(i, u)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, stockOf(t, svc.Repo, p.ID))
}

func TestOrderService_PlaceGuestOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, pub := newOrderService(t)
	p := seedProduct(t, svc.Repo, "p", 30, 2)
	seedUser(t, svc.Repo, "taken@example.com")

	req := transport.GuestOrderRequest{
		RegisterRequest: transport.RegisterRequest{
			Name: "Guest", Email: "Guest@Example.com", Phone: "9123456780", Password: "secret1",
		},
		Items:    []transport.CartLine{{ProductID: p.ID, Quantity: 1}},
		Shipping: validShipping(),
	}
	order, err := svc.PlaceGuestOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", order.Email)

	guest, err := svc.Repo.GetUserByEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.Equal(t, guest.ID, order.UserID)
	assert.False(t, guest.IsAdmin)
	assert.Contains(t, pub.topics(), TopicUserEvents)

	req.Email = "taken@example.com"
	_, err = svc.PlaceGuestOrder(ctx, req)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, stockOf(t, svc.Repo, p.ID))

	req.Email = "other@example.com"
	req.Items[0].Quantity = 5
	_, err = svc.PlaceGuestOrder(ctx, req)
	require.ErrorIs(t, err, ErrInsufficientStock)
	_, err = svc.Repo.GetUserByEmail(ctx, "other@example.com")
	require.Error(t, err, "guest account rolls back with the order")
}

func TestOrderService_ShippingValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*transport.ShippingInfo)
	}{
		{"short name", func(s *transport.ShippingInfo) { s.Name = "Jo" }},
		{"phone letters", func(s *transport.ShippingInfo) { s.Phone = "98765abcde" }},
		{"short city", func(s *transport.ShippingInfo) { s.Address.City = "Rome" }},
		{"pincode below range", func(s *transport.ShippingInfo) { s.Address.Pincode = "011111" }},
		{"pincode length", func(s *transport.ShippingInfo) { s.Address.Pincode = "12345" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := validShipping()
			tt.mutate(&in)
			_, err := shippingInfo(in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := shippingInfo(validShipping())
	assert.NoError(t, err)
}

func placeOne(t *testing.T, svc *OrderService, userID uuid.UUID, lines ...transport.CartLine) *models.Order {
	t.Helper()
	order, err := svc.PlaceOrder(context.Background(), userID, transport.PlaceOrderRequest{
		Items:    lines,
		Shipping: validShipping(),
	})
	require.NoError(t, err)
	return order
}

func TestOrderService_GetOrderAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newOrderService(t)
	owner := seedUser(t, svc.Repo, "owner@example.com")
	other := seedUser(t, svc.Repo, "other@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 5)
	order := placeOne(t, svc, owner.ID, transport.CartLine{ProductID: p.ID, Quantity: 1})

	_, err := svc.GetOrder(ctx, order.ID, owner.ID, false)
	assert.NoError(t, err)
	_, err = svc.GetOrder(ctx, order.ID, other.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GetOrder(ctx, order.ID, other.ID, true)
	assert.NoError(t, err)
	_, err = svc.GetOrder(ctx, uuid.New(), owner.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_CancelOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newOrderService(t)
	owner := seedUser(t, svc.Repo, "cancel@example.com")
	other := seedUser(t, svc.Repo, "intruder@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 5)
	order := placeOne(t, svc, owner.ID, transport.CartLine{ProductID: p.ID, Quantity: 3})
	require.Equal(t, 2, stockOf(t, svc.Repo, p.ID))

	_, err := svc.CancelOrder(ctx, order.ID, other.ID)
	require.ErrorIs(t, err, ErrForbidden)

	canceled, err := svc.CancelOrder(ctx, order.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCanceled, canceled.Status)
	assert.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, 5, stockOf(t, svc.Repo, p.ID))

	_, err = svc.CancelOrder(ctx, order.ID, owner.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 5, stockOf(t, svc.Repo, p.ID), "stock is restored once")

	_, err = svc.CancelOrder(ctx, uuid.New(), owner.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_CancelLineItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newOrderService(t)
	owner := seedUser(t, svc.Repo, "lines@example.com")
	p1 := seedProduct(t, svc.Repo, "p1", 10, 5)
	p2 := seedProduct(t, svc.Repo, "p2", 20, 5)
	order := placeOne(t, svc, owner.ID,
		transport.CartLine{ProductID: p1.ID, Quantity: 2},
		transport.CartLine{ProductID: p2.ID, Quantity: 1},
	)

	updated, err := svc.CancelLineItem(ctx, order.ID, p1.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, updated.Status)
	assert.Equal(t, 1, updated.TotalItems)
	assert.True(t, decimal.NewFromInt(20).Equal(updated.TotalPrice))
	assert.Equal(t, 5, stockOf(t, svc.Repo, p1.ID))

	_, err = svc.CancelLineItem(ctx, order.ID, p1.ID, owner.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.CancelLineItem(ctx, order.ID, uuid.New(), owner.ID)
	require.ErrorIs(t, err, ErrNotFound)

	updated, err = svc.CancelLineItem(ctx, order.ID, p2.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCanceled, updated.Status)
	assert.NotNil(t, updated.CanceledAt)
	assert.Equal(t, 0, updated.TotalItems)
	assert.True(t, decimal.Zero.Equal(updated.TotalPrice))
	assert.Equal(t, 5, stockOf(t, svc.Repo, p2.ID))
}

func TestOrderService_CancelLineItemGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newOrderService(t)
	owner := seedUser(t, svc.Repo, "lineowner@example.com")
	other := seedUser(t, svc.Repo, "lineother@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 5)
	order := placeOne(t, svc, owner.ID, transport.CartLine{ProductID: p.ID, Quantity: 2})

	_, err := svc.CancelLineItem(ctx, order.ID, p.ID, other.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 3, stockOf(t, svc.Repo, p.ID))

	_, err = svc.UpdateStatus(ctx, order.ID, "shipped")
	require.NoError(t, err)

	_, err = svc.CancelLineItem(ctx, order.ID, p.ID, owner.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 3, stockOf(t, svc.Repo, p.ID))

	got, err := svc.GetOrder(ctx, order.ID, owner.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, got.Status)
	assert.Equal(t, 2, got.TotalItems)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newOrderService(t)
	owner := seedUser(t, svc.Repo, "status@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 10)

	order := placeOne(t, svc, owner.ID, transport.CartLine{ProductID: p.ID, Quantity: 1})
	steps := []struct {
		status string
		want   error
	}{
		{"bogus", ErrValidation},
		{"pending", ErrInvalidState},
		{"completed", nil},
		{"shipped", nil},
		{"canceled", ErrInvalidState},
		{"delivered", nil},
		{"shipped", ErrInvalidState},
	}
	for _, st := range steps {
		_, err := svc.UpdateStatus(ctx, order.ID, st.status)
		if st.want == nil {
			require.NoError(t, err, st.status)
		} else {
			require.ErrorIs(t, err, st.want, st.status)
		}
	}

	_, err := svc.CancelOrder(ctx, order.ID, owner.ID)
	require.ErrorIs(t, err, ErrInvalidState, "delivered orders cannot be canceled")

	second := placeOne(t, svc, owner.ID, transport.CartLine{ProductID: p.ID, Quantity: 4})
	require.Equal(t, 5, stockOf(t, svc.Repo, p.ID))
	canceled, err := svc.UpdateStatus(ctx, second.ID, "canceled")
	require.NoError(t, err)
	assert.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, 9, stockOf(t, svc.Repo, p.ID))

	_, err = svc.UpdateStatus(ctx, uuid.New(), "completed")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_Lists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newOrderService(t)
	a := seedUser(t, svc.Repo, "lista@example.com")
	b := seedUser(t, svc.Repo, "listb@example.com")
	p := seedProduct(t, svc.Repo, "p", 10, 10)

	first := placeOne(t, svc, a.ID, transport.CartLine{ProductID: p.ID, Quantity: 1})
	latest := placeOne(t, svc, a.ID, transport.CartLine{ProductID: p.ID, Quantity: 1})
	placeOne(t, svc, b.ID, transport.CartLine{ProductID: p.ID, Quantity: 1})
	_, err := svc.CancelOrder(ctx, first.ID, a.ID)
	require.NoError(t, err)

	total, orders, err := svc.ListOrders(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, orders, 2)
	assert.Equal(t, latest.ID, orders[0].ID)

	total, _, err = svc.ListAllOrders(ctx, "", 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	total, orders, err = svc.ListAllOrders(ctx, "canceled", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, first.ID, orders[0].ID)

	_, _, err = svc.ListAllOrders(ctx, "lost", 0, 10)
	require.ErrorIs(t, err, ErrValidation)
}
