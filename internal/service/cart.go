package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService struct {
	Repo    *repo.GormRepo
	Events  EventPublisher
	Metrics *metrics.Metrics
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	var cart *models.Cart
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		cart, err = addItem(ctx, tx, userID, productID, quantity)
		return err
	})
	if err != nil {
		s.observeStock(err)
		return nil, err
	}

	logging.FromContext(ctx).Info("cart_item_added", "svc", "cart.add", "user_id", userID, "product_id", productID, "quantity", quantity)
	publish(ctx, s.Events, TopicCartEvents, userID.String(), newCartEvent("cart_item_added", cart, &productID))
	return cart, nil
}

// addItem merges quantity into the user's line for productID, creating the
// cart and the line as needed. tx must be transaction bound.
func addItem(ctx context.Context, tx *repo.GormRepo, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be >= 1: %w", ErrValidation)
	}

	product, err := tx.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}

	cart, err := lockOrCreateCart(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	item, err := tx.GetCartItem(ctx, cart.ID, productID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if quantity > product.Stock {
			return nil, stockError(product, quantity)
		}
		if err := tx.CreateCartItem(ctx, &models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		}); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		merged := item.Quantity + quantity
		if merged > product.Stock {
			return nil, stockError(product, merged)
		}
		if err := tx.SetCartItemQuantity(ctx, item.ID, merged); err != nil {
			return nil, err
		}
	}

	return recalcCart(ctx, tx, cart.ID)
}

func lockOrCreateCart(ctx context.Context, tx *repo.GormRepo, userID uuid.UUID) (*models.Cart, error) {
	cart, err := tx.GetCartByUser(ctx, userID, true)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := tx.CreateCart(ctx, &models.Cart{UserID: userID, TotalPrice: decimal.Zero}); err != nil {
		return nil, err
	}
	return tx.GetCartByUser(ctx, userID, true)
}

// recalcCart reloads the cart with its products and stores fresh totals.
func recalcCart(ctx context.Context, tx *repo.GormRepo, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := tx.LoadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	cart.Recalculate()
	if err := tx.SaveCartTotals(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func emptyCart(ctx context.Context, tx *repo.GormRepo, cart *models.Cart) error {
	if err := tx.ClearCartItems(ctx, cart.ID); err != nil {
		return err
	}
	cart.Items = []models.CartItem{}
	cart.TotalItems = 0
	cart.TotalPrice = decimal.Zero
	return tx.SaveCartTotals(ctx, cart)
}

func stockError(p *models.Product, requested int) *StockError {
	return &StockError{
		ProductID: p.ID,
		Title:     p.Title,
		Requested: requested,
		Available: p.Stock,
	}
}

// GetCart reports found=false when the user never had a cart.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, bool, error) {
	row, err := s.Repo.GetCartByUser(ctx, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	cart, err := s.Repo.LoadCart(ctx, row.ID)
	if err != nil {
		return nil, false, err
	}
	cart.Recalculate()
	return cart, true, nil
}

// SetItems replaces the whole cart. Every line is checked before anything
// is written.
func (s *CartService) SetItems(ctx context.Context, userID uuid.UUID, lines []transport.CartLine) (*models.Cart, error) {
	merged := mergeLines(lines)
	for _, ln := range merged {
		if ln.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be >= 1: %w", ErrValidation)
		}
	}

	var cart *models.Cart
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		ids := make([]uuid.UUID, 0, len(merged))
		for _, ln := range merged {
			ids = append(ids, ln.ProductID)
		}
		products, err := tx.GetProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}

		items := make([]models.CartItem, 0, len(merged))
		for _, ln := range merged {
			p, ok := products[ln.ProductID]
			if !ok {
				return fmt.Errorf("product %s not found: %w", ln.ProductID, ErrNotFound)
			}
			if ln.Quantity > p.Stock {
				return stockError(&p, ln.Quantity)
			}
			items = append(items, models.CartItem{ProductID: ln.ProductID, Quantity: ln.Quantity})
		}

		c, err := lockOrCreateCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := tx.ReplaceCartItems(ctx, c.ID, items); err != nil {
			return err
		}
		cart, err = recalcCart(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		s.observeStock(err)
		return nil, err
	}

	publish(ctx, s.Events, TopicCartEvents, userID.String(), newCartEvent("cart_replaced", cart, nil))
	return cart, nil
}

// mergeLines folds duplicate product ids into one line, keeping the order
// of first appearance.
func mergeLines(lines []transport.CartLine) []transport.CartLine {
	out := make([]transport.CartLine, 0, len(lines))
	pos := make(map[uuid.UUID]int, len(lines))
	for _, ln := range lines {
		if i, ok := pos[ln.ProductID]; ok {
			out[i].Quantity += ln.Quantity
			continue
		}
		pos[ln.ProductID] = len(out)
		out = append(out, ln)
	}
	return out
}

// UpdateItem sets the quantity of one line. A quantity below 1 removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	var cart *models.Cart
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		c, err := tx.GetCartByUser(ctx, userID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart not found: %w", ErrNotFound)
			}
			return err
		}
		item, err := tx.GetCartItem(ctx, c.ID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product not in cart: %w", ErrNotFound)
			}
			return err
		}

		if quantity < 1 {
			if err := tx.DeleteCartItem(ctx, item.ID); err != nil {
				return err
			}
		} else {
			product, err := tx.GetProduct(ctx, productID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product not found: %w", ErrNotFound)
				}
				return err
			}
			if quantity > product.Stock {
				return stockError(product, quantity)
			}
			if err := tx.SetCartItemQuantity(ctx, item.ID, quantity); err != nil {
				return err
			}
		}

		cart, err = recalcCart(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		s.observeStock(err)
		return nil, err
	}

	publish(ctx, s.Events, TopicCartEvents, userID.String(), newCartEvent("cart_item_updated", cart, &productID))
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		c, err := tx.GetCartByUser(ctx, userID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart not found: %w", ErrNotFound)
			}
			return err
		}
		cart = c
		return emptyCart(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicCartEvents, userID.String(), newCartEvent("cart_cleared", cart, nil))
	return cart, nil
}

func (s *CartService) observeStock(err error) {
	if errors.Is(err, ErrInsufficientStock) {
		s.Metrics.StockRejected()
	}
}
