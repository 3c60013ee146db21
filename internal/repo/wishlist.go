package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) GetWishlistByUser(ctx context.Context, userID uuid.UUID, lock bool) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := forUpdate(r.DB.WithContext(ctx), lock).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormRepo) LoadWishlist(ctx context.Context, wishlistID uuid.UUID) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("wishlist_items.created_at ASC, wishlist_items.id ASC") }).
		Preload("Items.Product").
		Where("id = ?", wishlistID).
		First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWishlist inserts the wishlist unless the user already has one.
// Callers must re-read the wishlist by user afterwards.
func (r *GormRepo) CreateWishlist(ctx context.Context, w *models.Wishlist) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit("Items").
		Create(w).Error
}

func (r *GormRepo) HasWishlistItem(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.WishlistItem{}).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddWishlistItem reports false when the product is already on the list.
func (r *GormRepo) AddWishlistItem(ctx context.Context, item *models.WishlistItem) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wishlist_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Omit("Product").
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteWishlistItem reports whether a line was removed.
func (r *GormRepo) DeleteWishlistItem(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
