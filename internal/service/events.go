package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicUserEvents    = "user_events"
	TopicProductEvents = "product_events"
	TopicCartEvents    = "cart_events"
	TopicOrderEvents   = "order_events"
	TopicPaymentEvents = "payment_events"

	TopicWishlistEvents = "wishlist_events"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type UserEvent struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"userID"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

type ProductEvent struct {
	Type       string          `json:"type"`
	ProductID  uuid.UUID       `json:"productID"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type CartEvent struct {
	Type       string          `json:"type"`
	UserID     uuid.UUID       `json:"userID"`
	CartID     uuid.UUID       `json:"cartID"`
	ProductID  *uuid.UUID      `json:"productID,omitempty"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type WishlistEvent struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"userID"`
	WishlistID uuid.UUID `json:"wishlistID"`
	ProductID  uuid.UUID `json:"productID"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newWishlistEvent(typ string, userID, wishlistID, productID uuid.UUID) WishlistEvent {
	return WishlistEvent{
		Type:       typ,
		UserID:     userID,
		WishlistID: wishlistID,
		ProductID:  productID,
		OccurredAt: time.Now().UTC(),
	}
}

type OrderEvent struct {
	Type          string             `json:"type"`
	OrderID       uuid.UUID          `json:"orderID"`
	UserID        uuid.UUID          `json:"userID"`
	Status        models.OrderStatus `json:"status"`
	PaymentStatus string             `json:"paymentStatus"`
	TotalItems    int                `json:"totalItems"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
	OccurredAt    time.Time          `json:"occurredAt"`
}

func newOrderEvent(typ string, o *models.Order) OrderEvent {
	return OrderEvent{
		Type:          typ,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalItems:    o.TotalItems,
		TotalPrice:    o.TotalPrice,
		OccurredAt:    time.Now().UTC(),
	}
}

func newCartEvent(typ string, c *models.Cart, productID *uuid.UUID) CartEvent {
	return CartEvent{
		Type:       typ,
		UserID:     c.UserID,
		CartID:     c.ID,
		ProductID:  productID,
		TotalItems: c.TotalItems,
		TotalPrice: c.TotalPrice,
		OccurredAt: time.Now().UTC(),
	}
}

// publish logs broker failures instead of returning them.
func publish(ctx context.Context, p EventPublisher, topic, key string, event any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}
