package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, items []payment.LineItem, successURL, failURL string) (*payment.Session, error)
	GetSessionStatus(ctx context.Context, sessionID string) (string, error)
}

type PaymentService struct {
	Repo       *repo.GormRepo
	Gateway    PaymentGateway
	Mailer     Notifier
	Events     EventPublisher
	Metrics    *metrics.Metrics
	SuccessURL string
	FailURL    string
}

type PaymentEvent struct {
	Type          string    `json:"type"`
	OrderID       uuid.UUID `json:"orderID"`
	SessionID     string    `json:"sessionID"`
	PaymentStatus string    `json:"paymentStatus"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// CreatePayment opens a hosted checkout session for an unpaid order of the
// requester and remembers the session on the order.
func (s *PaymentService) CreatePayment(ctx context.Context, orderID, requesterID uuid.UUID) (*payment.Session, error) {
	l := logging.FromContext(ctx).With("svc", "payment.create", "order_id", orderID)
	if s.Gateway == nil {
		return nil, fmt.Errorf("payment gateway not configured: %w", ErrUnavailable)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order not found: %w", ErrNotFound)
		}
		return nil, err
	}
	if order.UserID != requesterID {
		return nil, fmt.Errorf("order belongs to another user: %w", ErrForbidden)
	}
	if order.Status != models.OrderStatusPending || order.PaymentStatus != models.PaymentStatusPending {
		return nil, fmt.Errorf("order is %s with payment %s: %w", order.Status, order.PaymentStatus, ErrInvalidState)
	}

	active := order.ActiveItems()
	items := make([]payment.LineItem, 0, len(active))
	for _, it := range active {
		name := it.ProductID.String()
		if it.Product != nil {
			name = it.Product.Title
		}
		items = append(items, payment.LineItem{Name: name, UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, items, s.SuccessURL, s.FailURL)
	if err != nil {
		l.Error("checkout_session_failed", "error", err)
		return nil, fmt.Errorf("create checkout session: %v: %w", err, ErrUnavailable)
	}
	if err := s.Repo.UpdateOrder(ctx, order.ID, map[string]any{"payment_session_id": session.ID}); err != nil {
		return nil, err
	}

	l.Info("checkout_session_created", "session_id", session.ID)
	publish(ctx, s.Events, TopicPaymentEvents, order.ID.String(), PaymentEvent{
		Type:          "payment_session_created",
		OrderID:       order.ID,
		SessionID:     session.ID,
		PaymentStatus: order.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	})
	return session, nil
}

// ReconcilePayment applies the gateway outcome of a checkout session to its
// order. Orders whose payment is no longer pending are returned unchanged,
// so repeated calls have no further effect.
func (s *PaymentService) ReconcilePayment(ctx context.Context, sessionID string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "payment.reconcile", "session_id", sessionID)
	if s.Gateway == nil {
		return nil, fmt.Errorf("payment gateway not configured: %w", ErrUnavailable)
	}

	current, err := s.Repo.GetOrderByPaymentSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no order for session: %w", ErrNotFound)
		}
		return nil, err
	}
	orderID := current.ID
	if current.PaymentStatus != models.PaymentStatusPending {
		return s.Repo.GetOrder(ctx, orderID)
	}

	gwStatus, err := s.Gateway.GetSessionStatus(ctx, sessionID)
	if err != nil {
		err = fmt.Errorf("get session status: %v: %w", err, ErrUnavailable)
		l.Error("reconcile_failed", "error", err)
		return nil, err
	}
	if gwStatus == payment.StatusProcessing {
		return s.Repo.GetOrder(ctx, orderID)
	}
	if gwStatus == "" {
		gwStatus = payment.StatusFailed
	}

	var changed, succeeded, canceled bool
	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		// Another request may have settled the payment since the lookup.
		if order.PaymentStatus != models.PaymentStatusPending {
			return nil
		}

		if gwStatus == payment.StatusSucceeded {
			fields := map[string]any{"payment_status": models.PaymentStatusSucceeded}
			if order.Status == models.OrderStatusPending {
				fields["status"] = models.OrderStatusCompleted
			}
			changed, succeeded = true, true
			return tx.UpdateOrder(ctx, order.ID, fields)
		}

		fields := map[string]any{"payment_status": gwStatus}
		if order.Status.Cancelable() {
			if err := restoreStock(ctx, tx, order); err != nil {
				return err
			}
			fields["status"] = models.OrderStatusCanceled
			fields["canceled_at"] = time.Now().UTC()
			canceled = true
		}
		changed = true
		return tx.UpdateOrder(ctx, order.ID, fields)
	})
	if err != nil {
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	s.Metrics.PaymentReconciled(gwStatus)
	if canceled {
		s.Metrics.OrderCanceled()
	}
	l.Info("payment_reconciled", "order_id", order.ID, "payment_status", order.PaymentStatus, "status", order.Status)
	publish(ctx, s.Events, TopicPaymentEvents, order.ID.String(), PaymentEvent{
		Type:          "payment_reconciled",
		OrderID:       order.ID,
		SessionID:     sessionID,
		PaymentStatus: order.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	})
	publish(ctx, s.Events, TopicOrderEvents, order.ID.String(), newOrderEvent("order_payment_updated", order))

	if succeeded && s.Mailer != nil {
		if err := s.Mailer.SendOrderConfirmation(ctx, order.Email, order); err != nil {
			l.Warn("confirmation_mail_failed", "order_id", order.ID, "error", err)
		}
	}
	return order, nil
}
