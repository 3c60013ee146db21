package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WishlistService struct {
	Repo    *repo.GormRepo
	Events  EventPublisher
	Metrics *metrics.Metrics
}

func (s *WishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*models.Wishlist, error) {
	var wishlistID uuid.UUID
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product not found: %w", ErrNotFound)
			}
			return err
		}

		w, err := lockOrCreateWishlist(ctx, tx, userID)
		if err != nil {
			return err
		}
		wishlistID = w.ID

		added, err := tx.AddWishlistItem(ctx, &models.WishlistItem{WishlistID: w.ID, ProductID: productID})
		if err != nil {
			return err
		}
		if !added {
			return fmt.Errorf("product already in wishlist: %w", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("wishlist_item_added", "svc", "wishlist.add", "user_id", userID, "product_id", productID)
	publish(ctx, s.Events, TopicWishlistEvents, userID.String(), newWishlistEvent("wishlist_item_added", userID, wishlistID, productID))
	return s.Repo.LoadWishlist(ctx, wishlistID)
}

func lockOrCreateWishlist(ctx context.Context, tx *repo.GormRepo, userID uuid.UUID) (*models.Wishlist, error) {
	w, err := tx.GetWishlistByUser(ctx, userID, true)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := tx.CreateWishlist(ctx, &models.Wishlist{UserID: userID}); err != nil {
		return nil, err
	}
	return tx.GetWishlistByUser(ctx, userID, true)
}

// Get returns an empty wishlist for users who never added anything.
func (s *WishlistService) Get(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	w, err := s.Repo.GetWishlistByUser(ctx, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Wishlist{UserID: userID, Items: []models.WishlistItem{}}, nil
		}
		return nil, err
	}
	return s.Repo.LoadWishlist(ctx, w.ID)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) (*models.Wishlist, error) {
	w, err := s.Repo.GetWishlistByUser(ctx, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not in wishlist: %w", ErrNotFound)
		}
		return nil, err
	}
	removed, err := s.Repo.DeleteWishlistItem(ctx, w.ID, productID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, fmt.Errorf("product not in wishlist: %w", ErrNotFound)
	}

	logging.FromContext(ctx).Info("wishlist_item_removed", "svc", "wishlist.remove", "user_id", userID, "product_id", productID)
	publish(ctx, s.Events, TopicWishlistEvents, userID.String(), newWishlistEvent("wishlist_item_removed", userID, w.ID, productID))
	return s.Repo.LoadWishlist(ctx, w.ID)
}

// MoveToCart adds one unit of the product to the cart and drops it from the
// wishlist in a single transaction.
func (s *WishlistService) MoveToCart(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	var (
		cart       *models.Cart
		wishlistID uuid.UUID
	)
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		w, err := tx.GetWishlistByUser(ctx, userID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product not in wishlist: %w", ErrNotFound)
			}
			return err
		}
		wishlistID = w.ID
		removed, err := tx.DeleteWishlistItem(ctx, w.ID, productID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("product not in wishlist: %w", ErrNotFound)
		}
		cart, err = addItem(ctx, tx, userID, productID, 1)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.Metrics.StockRejected()
		}
		return nil, err
	}

	logging.FromContext(ctx).Info("wishlist_item_moved", "svc", "wishlist.move", "user_id", userID, "product_id", productID)
	publish(ctx, s.Events, TopicWishlistEvents, userID.String(), newWishlistEvent("wishlist_item_removed", userID, wishlistID, productID))
	publish(ctx, s.Events, TopicCartEvents, userID.String(), newCartEvent("cart_item_added", cart, &productID))
	return cart, nil
}
