package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Wishlist struct {
	ID     uuid.UUID      `gorm:"type:uuid;primaryKey"           json:"id"`
	UserID uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Items  []WishlistItem `gorm:"foreignKey:WishlistID"          json:"items"`
}

func (w *Wishlist) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

type WishlistItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"                               json:"id"`
	WishlistID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_product;not null" json:"wishlist_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_product;not null" json:"product_id"`
	CreatedAt  time.Time `gorm:"not null"                                           json:"created_at"`
	Product    *Product  `gorm:"foreignKey:ProductID"                               json:"product,omitempty"`
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
