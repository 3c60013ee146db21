package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusCompleted, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled},
	OrderStatusCompleted: {OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancelable reports whether the order has not shipped yet.
func (s OrderStatus) Cancelable() bool {
	return s == OrderStatusPending || s == OrderStatusCompleted
}

const (
	PaymentStatusPending   = "payment_pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "payment_failed"
)

type Address struct {
	House   string `gorm:"not null" json:"house"`
	City    string `gorm:"not null" json:"city"`
	State   string `gorm:"not null" json:"state"`
	Pincode string `gorm:"not null" json:"pincode"`
}

type ShippingInfo struct {
	Name    string  `gorm:"not null"                        json:"name"`
	Phone   string  `gorm:"not null"                        json:"phone"`
	Address Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`
}

type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"                    json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null"               json:"user_id"`
	Email            string          `gorm:"not null"                               json:"email"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID"                     json:"items"`
	TotalItems       int             `gorm:"not null"                               json:"total_items"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null"            json:"total_price"`
	Status           OrderStatus     `gorm:"type:varchar(16);index;not null"        json:"status"`
	Shipping         ShippingInfo    `gorm:"embedded;embeddedPrefix:shipping_"      json:"shipping_info"`
	PaymentStatus    string          `gorm:"not null;default:'payment_pending'"     json:"payment_status"`
	PaymentSessionID *string         `gorm:"uniqueIndex"                            json:"payment_session_id,omitempty"`
	CanceledAt       *time.Time      `                                              json:"canceled_at,omitempty"`
	CreatedAt        time.Time       `gorm:"index"                                  json:"created_at"`
	UpdatedAt        time.Time       `                                              json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ActiveItems returns the lines that have not been canceled.
func (o *Order) ActiveItems() []OrderItem {
	out := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		if !it.Canceled {
			out = append(out, it)
		}
	}
	return out
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"    json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Canceled  bool            `gorm:"not null;default:false"      json:"canceled"`
	CreatedAt time.Time       `gorm:"not null"                    json:"created_at"`
	Product   *Product        `gorm:"foreignKey:ProductID"        json:"product,omitempty"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Recalculate derives the totals from the lines that are not canceled,
// priced at the unit price captured when the order was placed.
func (o *Order) Recalculate() {
	total := decimal.Zero
	count := 0
	for _, it := range o.Items {
		if it.Canceled {
			continue
		}
		count += it.Quantity
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	o.TotalItems = count
	o.TotalPrice = total
}
