package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.get")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	w, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return respondError(c, l, "get_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req transport.WishlistRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("add_wishlist_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	w, err := h.Svc.Add(ctx, userID, req.ProductID)
	if err != nil {
		return respondError(c, l, "add_wishlist_error", err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	productID, err := paramUUID(c, "productId")
	if err != nil {
		return err
	}

	w, err := h.Svc.Remove(ctx, userID, productID)
	if err != nil {
		return respondError(c, l, "remove_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WishlistHTTP) MoveToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.move_to_cart")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req transport.WishlistRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("move_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	cart, err := h.Svc.MoveToCart(ctx, userID, req.ProductID)
	if err != nil {
		return respondError(c, l, "move_to_cart_error", err)
	}

	l.Info("move_to_cart_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, cart)
}
