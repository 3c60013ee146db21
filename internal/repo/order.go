package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Omit("Items.Product").Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items", orderItemsOrder).
		Preload("Items.Product").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder loads the order row under a row lock together with its lines.
func (r *GormRepo) LockOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	db := r.DB.WithContext(ctx)
	if err := forUpdate(db, true).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	if err := orderItemsOrder(db.Where("order_id = ?", order.ID)).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("payment_session_id = ?", sessionID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return r.listOrders(ctx, r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID), offset, limit)
}

func (r *GormRepo) ListOrders(ctx context.Context, status models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.listOrders(ctx, q, offset, limit)
}

func (r *GormRepo) listOrders(ctx context.Context, q *gorm.DB, offset, limit int) (int64, []models.Order, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := q.Preload("Items", orderItemsOrder).
		Preload("Items.Product").
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) UpdateOrder(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormRepo) CancelOrderItem(ctx context.Context, itemID uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Update("canceled", true).Error
}

func orderItemsOrder(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.created_at ASC, order_items.id ASC")
}
