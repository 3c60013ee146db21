package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetCartByUser loads the cart row only. With lock the row stays locked
// until the surrounding transaction ends.
func (r *GormRepo) GetCartByUser(ctx context.Context, userID uuid.UUID, lock bool) (*models.Cart, error) {
	var cart models.Cart
	if err := forUpdate(r.DB.WithContext(ctx), lock).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// LoadCart returns the cart with its items and their products.
func (r *GormRepo) LoadCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.created_at ASC, cart_items.id ASC") }).
		Preload("Items.Product").
		Where("id = ?", cartID).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateCart inserts the cart unless the user already has one. Callers
// must re-read the cart by user afterwards.
func (r *GormRepo) CreateCart(ctx context.Context, cart *models.Cart) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit("Items").
		Create(cart).Error
}

func (r *GormRepo) GetCartItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Omit("Product").Create(item).Error
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, itemID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// ReplaceCartItems drops every line of the cart and inserts items instead.
func (r *GormRepo) ReplaceCartItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	if err := r.ClearCartItems(ctx, cartID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range items {
		items[i].CartID = cartID
		items[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
	}
	return r.DB.WithContext(ctx).Omit("Product").Create(&items).Error
}

func (r *GormRepo) ClearCartItems(ctx context.Context, cartID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (r *GormRepo) SaveCartTotals(ctx context.Context, cart *models.Cart) error {
	return r.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"total_items": cart.TotalItems,
			"total_price": cart.TotalPrice,
		}).Error
}
