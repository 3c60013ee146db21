package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/labstack/echo/v4"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrInvalidState, http.StatusConflict},
	{service.ErrUnavailable, http.StatusServiceUnavailable},
}

// respondError maps a service error to its HTTP response. Anything that is
// not a known service error is logged and reported as a bare 500.
func respondError(c echo.Context, l *slog.Logger, event string, err error) error {
	var se *service.StockError
	if errors.As(err, &se) {
		l.Warn(event, "status", http.StatusUnprocessableEntity, "reason", "insufficient stock", "product_id", se.ProductID, "error", err)
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"message":    se.Error(),
			"product_id": se.ProductID,
			"requested":  se.Requested,
			"available":  se.Available,
		})
	}

	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			msg := publicMessage(err, m.err)
			l.Warn(event, "status", m.status, "reason", msg, "error", err)
			return echo.NewHTTPError(m.status, msg)
		}
	}

	l.Error(event, "status", http.StatusInternalServerError, "reason", "unexpected error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

// publicMessage drops the trailing sentinel text added by %w wrapping.
func publicMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
