package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Cart struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"           json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Items      []CartItem      `gorm:"foreignKey:CartID"              json:"items"`
	TotalItems int             `gorm:"not null;default:0"             json:"total_items"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"    json:"total_price"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                           json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"                    json:"quantity"`
	CreatedAt time.Time `gorm:"not null"                                       json:"created_at"`
	Product   *Product  `gorm:"foreignKey:ProductID"                           json:"product,omitempty"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Recalculate derives the totals from the current items and the prices of
// their loaded products.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	count := 0
	for _, it := range c.Items {
		count += it.Quantity
		if it.Product != nil {
			total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	c.TotalItems = count
	c.TotalPrice = total
}
