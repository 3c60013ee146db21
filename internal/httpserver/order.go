package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("place_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req transport.PlaceOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	order, err := h.Svc.PlaceOrder(ctx, userID, req)
	if err != nil {
		return respondError(c, l, "place_order_error", err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) PlaceGuestOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_guest")

	var req transport.GuestOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("place_guest_order_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	order, err := h.Svc.PlaceGuestOrder(ctx, req)
	if err != nil {
		return respondError(c, l, "place_guest_order_error", err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, id, userID, isAdmin(c))
	if err != nil {
		return respondError(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	offset, limit, page := pageParams(c)
	total, orders, err := h.Svc.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return respondError(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, util.NewPage(orders, page, offset, limit, total))
}

func (h *OrderHTTP) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	offset, limit, page := pageParams(c)
	total, orders, err := h.Svc.ListAllOrders(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return respondError(c, l, "list_all_orders_error", err)
	}
	return c.JSON(http.StatusOK, util.NewPage(orders, page, offset, limit, total))
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req transport.UpdateOrderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("update_order_status_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	order, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return respondError(c, l, "update_order_status_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.CancelOrder(ctx, id, userID)
	if err != nil {
		return respondError(c, l, "cancel_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CancelLineItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_line")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	productID, err := paramUUID(c, "productId")
	if err != nil {
		return err
	}

	order, err := h.Svc.CancelLineItem(ctx, id, productID, userID)
	if err != nil {
		return respondError(c, l, "cancel_line_item_error", err)
	}
	return c.JSON(http.StatusOK, order)
}
