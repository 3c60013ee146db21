package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderService struct {
	Repo    *repo.GormRepo
	Events  EventPublisher
	Metrics *metrics.Metrics
}

type placement struct {
	userID   uuid.UUID
	guest    *models.User
	lines    []transport.CartLine
	shipping models.ShippingInfo
}

// PlaceOrder buys the given lines for an authenticated user. With no lines
// the user's cart is bought and emptied.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req transport.PlaceOrderRequest) (*models.Order, error) {
	shipping, err := shippingInfo(req.Shipping)
	if err != nil {
		return nil, err
	}
	return s.place(ctx, placement{userID: userID, lines: req.Items, shipping: shipping})
}

// PlaceGuestOrder registers the guest account and places the order in the
// same transaction.
func (s *OrderService) PlaceGuestOrder(ctx context.Context, req transport.GuestOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("items required: %w", ErrValidation)
	}
	guest, err := newUser(req.RegisterRequest)
	if err != nil {
		return nil, err
	}
	shipping, err := shippingInfo(req.Shipping)
	if err != nil {
		return nil, err
	}
	order, err := s.place(ctx, placement{guest: guest, lines: req.Items, shipping: shipping})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicUserEvents, guest.ID.String(), UserEvent{
		Type:       "user_registered",
		UserID:     guest.ID,
		Email:      guest.Email,
		OccurredAt: time.Now().UTC(),
	})
	return order, nil
}

func (s *OrderService) place(ctx context.Context, in placement) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	var orderID uuid.UUID
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		email, err := orderOwner(ctx, tx, &in)
		if err != nil {
			return err
		}

		lines := mergeLines(in.lines)
		var cart *models.Cart
		if len(lines) == 0 {
			cart, lines, err = cartLines(ctx, tx, in.userID)
			if err != nil {
				return err
			}
		}

		order := &models.Order{
			UserID:        in.userID,
			Email:         email,
			Status:        models.OrderStatusPending,
			Shipping:      in.shipping,
			PaymentStatus: models.PaymentStatusPending,
			Items:         make([]models.OrderItem, 0, len(lines)),
		}
		now := time.Now().UTC()
		for i, ln := range lines {
			if ln.Quantity < 1 {
				return fmt.Errorf("quantity must be >= 1: %w", ErrValidation)
			}
			product, err := tx.GetProduct(ctx, ln.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %s not found: %w", ln.ProductID, ErrNotFound)
				}
				return err
			}
			ok, err := tx.DecrementStock(ctx, product.ID, ln.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return stockError(product, ln.Quantity)
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  ln.Quantity,
				UnitPrice: product.Price,
				CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
			})
		}
		order.Recalculate()

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if cart != nil {
			if err := emptyCart(ctx, tx, cart); err != nil {
				return err
			}
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.Metrics.StockRejected()
		}
		l.Warn("place_order_failed", "user_id", in.userID, "error", err)
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.Metrics.OrderPlaced()
	l.Info("order_placed", "order_id", order.ID, "user_id", order.UserID, "total_price", order.TotalPrice.String())
	publish(ctx, s.Events, TopicOrderEvents, order.ID.String(), newOrderEvent("order_placed", order))
	return order, nil
}

// orderOwner resolves the buyer inside the transaction, creating the guest
// account when there is one, and returns the email the order is sent to.
func orderOwner(ctx context.Context, tx *repo.GormRepo, in *placement) (string, error) {
	if in.guest != nil {
		if err := tx.CreateUserIfNotExists(ctx, in.guest); err != nil {
			if errors.Is(err, repo.ErrUserAlreadyExist) {
				return "", fmt.Errorf("email already registered: %w", ErrConflict)
			}
			return "", err
		}
		in.userID = in.guest.ID
		return in.guest.Email, nil
	}

	user, err := tx.GetUserByID(ctx, in.userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return "", err
	}
	return user.Email, nil
}

func cartLines(ctx context.Context, tx *repo.GormRepo, userID uuid.UUID) (*models.Cart, []transport.CartLine, error) {
	row, err := tx.GetCartByUser(ctx, userID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("cart is empty: %w", ErrValidation)
		}
		return nil, nil, err
	}
	cart, err := tx.LoadCart(ctx, row.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(cart.Items) == 0 {
		return nil, nil, fmt.Errorf("cart is empty: %w", ErrValidation)
	}
	lines := make([]transport.CartLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, transport.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return cart, lines, nil
}

func shippingInfo(in transport.ShippingInfo) (models.ShippingInfo, error) {
	out := models.ShippingInfo{
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
		Address: models.Address{
			House:   strings.TrimSpace(in.Address.House),
			City:    strings.TrimSpace(in.Address.City),
			State:   strings.TrimSpace(in.Address.State),
			Pincode: strings.TrimSpace(in.Address.Pincode),
		},
	}

	checks := []struct {
		field    string
		value    string
		min, max int
	}{
		{"name", out.Name, 3, 50},
		{"house", out.Address.House, 3, 25},
		{"city", out.Address.City, 5, 20},
		{"state", out.Address.State, 3, 30},
	}
	for _, c := range checks {
		if n := utf8.RuneCountInString(c.value); n < c.min || n > c.max {
			return out, fmt.Errorf("shipping %s must be %d to %d characters: %w", c.field, c.min, c.max, ErrValidation)
		}
	}
	if !isDigits(out.Phone, 10) {
		return out, fmt.Errorf("shipping phone must be 10 digits: %w", ErrValidation)
	}
	pin, err := strconv.Atoi(out.Address.Pincode)
	if err != nil || !isDigits(out.Address.Pincode, 6) || pin < 111111 || pin > 999999 {
		return out, fmt.Errorf("pincode must be a number between 111111 and 999999: %w", ErrValidation)
	}
	return out, nil
}

// GetOrder is visible to the owner and to admins.
func (s *OrderService) GetOrder(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order not found: %w", ErrNotFound)
		}
		return nil, err
	}
	if order.UserID != requesterID && !isAdmin {
		return nil, fmt.Errorf("order belongs to another user: %w", ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID, offset, limit)
}

func (s *OrderService) ListAllOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	st := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return 0, nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}
	return s.Repo.ListOrders(ctx, st, offset, limit)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	next := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}

	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		order, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return fmt.Errorf("cannot move order from %s to %s: %w", order.Status, next, ErrInvalidState)
		}

		fields := map[string]any{"status": next}
		if next == models.OrderStatusCanceled {
			if err := restoreStock(ctx, tx, order); err != nil {
				return err
			}
			fields["canceled_at"] = time.Now().UTC()
		}
		return tx.UpdateOrder(ctx, id, fields)
	})
	if err != nil {
		return nil, err
	}
	return s.afterChange(ctx, id, "order_status_updated", next == models.OrderStatusCanceled)
}

// CancelOrder lets the owner cancel an order that has not shipped.
func (s *OrderService) CancelOrder(ctx context.Context, id, requesterID uuid.UUID) (*models.Order, error) {
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		order, err := lockOwnedOrder(ctx, tx, id, requesterID)
		if err != nil {
			return err
		}
		if err := restoreStock(ctx, tx, order); err != nil {
			return err
		}
		return tx.UpdateOrder(ctx, id, map[string]any{
			"status":      models.OrderStatusCanceled,
			"canceled_at": time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.afterChange(ctx, id, "order_canceled", true)
}

// CancelLineItem cancels one line of an order and gives its stock back.
// Canceling the last active line cancels the order.
func (s *OrderService) CancelLineItem(ctx context.Context, id, productID, requesterID uuid.UUID) (*models.Order, error) {
	orderCanceled := false
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		order, err := lockOwnedOrder(ctx, tx, id, requesterID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range order.Items {
			if order.Items[i].ProductID == productID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("product not in order: %w", ErrNotFound)
		}
		line := &order.Items[idx]
		if line.Canceled {
			return fmt.Errorf("line already canceled: %w", ErrInvalidState)
		}

		if err := tx.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
		if err := tx.CancelOrderItem(ctx, line.ID); err != nil {
			return err
		}
		line.Canceled = true
		order.Recalculate()

		fields := map[string]any{
			"total_items": order.TotalItems,
			"total_price": order.TotalPrice,
		}
		if len(order.ActiveItems()) == 0 {
			fields["status"] = models.OrderStatusCanceled
			fields["canceled_at"] = time.Now().UTC()
			orderCanceled = true
		}
		return tx.UpdateOrder(ctx, id, fields)
	})
	if err != nil {
		return nil, err
	}
	return s.afterChange(ctx, id, "order_line_canceled", orderCanceled)
}

func (s *OrderService) afterChange(ctx context.Context, id uuid.UUID, typ string, canceled bool) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if canceled {
		s.Metrics.OrderCanceled()
	}
	logging.FromContext(ctx).Info(typ, "svc", "order", "order_id", id, "status", order.Status)
	publish(ctx, s.Events, TopicOrderEvents, id.String(), newOrderEvent(typ, order))
	return order, nil
}

func lockOrder(ctx context.Context, tx *repo.GormRepo, id uuid.UUID) (*models.Order, error) {
	order, err := tx.LockOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

func lockOwnedOrder(ctx context.Context, tx *repo.GormRepo, id, requesterID uuid.UUID) (*models.Order, error) {
	order, err := lockOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID {
		return nil, fmt.Errorf("order belongs to another user: %w", ErrForbidden)
	}
	if !order.Status.Cancelable() {
		return nil, fmt.Errorf("order is %s: %w", order.Status, ErrInvalidState)
	}
	return order, nil
}

// restoreStock returns the quantity of every active line to its product.
func restoreStock(ctx context.Context, tx *repo.GormRepo, order *models.Order) error {
	for _, it := range order.ActiveItems() {
		if err := tx.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}
