package httpserver

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/metrics"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	Auth     *AuthHTTP
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Order    *OrderHTTP
	Wishlist *WishlistHTTP
	Payment  *PaymentHTTP

	Bearer  *authmw.BearerAuth
	Metrics *metrics.Metrics
	Ready   func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api/v1")
	authed := d.Bearer.RequireAuth
	admin := d.Bearer.RequireAdmin

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/forgotPassword", d.Auth.ForgotPassword)
	auth.PUT("/resetPassword/:token", d.Auth.ResetPassword)
	auth.POST("/refresh-token", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout, authed)

	products := api.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, admin)
	products.PUT("/:id", d.Catalog.PatchProduct, admin)

	cart := api.Group("/cart", authed)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.PUT("", d.Cart.SetCart)
	cart.DELETE("", d.Cart.ClearCart)
	cart.PATCH("/items/:productId", d.Cart.UpdateItem)

	order := api.Group("/order")
	order.POST("/guest", d.Order.PlaceGuestOrder)
	order.POST("", d.Order.PlaceOrder, authed)
	order.GET("", d.Order.ListOrders, authed)
	order.GET("/:id", d.Order.GetOrder, authed)
	order.PUT("/:id/status", d.Order.UpdateStatus, admin)
	order.POST("/:id/cancel", d.Order.CancelOrder, authed)
	order.POST("/:id/items/:productId/cancel", d.Order.CancelLineItem, authed)
	api.GET("/admin/orders", d.Order.ListAllOrders, admin)

	wishlist := api.Group("/wishlist", authed)
	wishlist.GET("", d.Wishlist.Get)
	wishlist.POST("", d.Wishlist.Add)
	wishlist.DELETE("/:productId", d.Wishlist.Remove)
	wishlist.POST("/moveToCart", d.Wishlist.MoveToCart)

	pay := api.Group("/payment")
	pay.POST("", d.Payment.CreatePayment, authed)
	pay.POST("/status", d.Payment.PaymentStatus)
}
