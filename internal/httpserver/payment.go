package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) CreatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req transport.CreatePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("create_payment_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	session, err := h.Svc.CreatePayment(ctx, req.OrderID, userID)
	if err != nil {
		return respondError(c, l, "create_payment_error", err)
	}
	return c.JSON(http.StatusOK, transport.PaymentSessionResponse{SessionID: session.ID, URL: session.URL})
}

// PaymentStatus is hit after the checkout redirect and settles the order.
func (h *PaymentHTTP) PaymentStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.status")

	var req transport.PaymentStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("payment_status_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	order, err := h.Svc.ReconcilePayment(ctx, req.SessionID)
	if err != nil {
		return respondError(c, l, "payment_status_error", err)
	}
	return c.JSON(http.StatusOK, order)
}
