package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, found, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return respondError(c, l, "get_cart_error", err)
	}
	if !found {
		l.Warn("get_cart_error", "status", 404, "reason", "cart not found")
		return echo.NewHTTPError(http.StatusNotFound, "cart not found")
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddToCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.Svc.AddItem(ctx, userID, req.ProductID, quantity)
	if err != nil {
		return respondError(c, l, "add_to_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) SetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("set_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.SetCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("set_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	cart, err := h.Svc.SetItems(ctx, userID, req.Items)
	if err != nil {
		return respondError(c, l, "set_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

// UpdateItem sets the quantity of one line; zero or less removes it.
func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("update_cart_item_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	productID, err := paramUUID(c, "productId")
	if err != nil {
		l.Warn("update_cart_item_error", "status", 400, "reason", "product id is not a uuid", "error", err)
		return err
	}

	var req transport.UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("update_cart_item_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	cart, err := h.Svc.UpdateItem(ctx, userID, productID, req.Quantity)
	if err != nil {
		return respondError(c, l, "update_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("clear_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.Svc.Clear(ctx, userID)
	if err != nil {
		return respondError(c, l, "clear_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}
