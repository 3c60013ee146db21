package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return err
	}

	product, err := h.Svc.Get(ctx, id)
	if err != nil {
		return respondError(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	offset, limit, page := pageParams(c)
	total, items, err := h.Svc.List(ctx, c.QueryParam("category"), offset, limit)
	if err != nil {
		return respondError(c, l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, util.NewPage(items, page, offset, limit, total))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	offset, limit, page := pageParams(c)
	total, items, err := h.Svc.Search(ctx, c.QueryParam("query"), offset, limit)
	if err != nil {
		return respondError(c, l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, util.NewPage(items, page, offset, limit, total))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	product, err := h.Svc.Create(ctx, req)
	if err != nil {
		return respondError(c, l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := paramUUID(c, "id")
	if err != nil {
		l.Warn("patch_product_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return err
	}
	var req transport.PatchProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("patch_product_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	product, err := h.Svc.Patch(ctx, id, req)
	if err != nil {
		return respondError(c, l, "patch_product_error", err)
	}

	l.Info("patch_product_success", "product_id", product.ID)
	return c.JSON(http.StatusOK, product)
}

func pageParams(c echo.Context) (offset, limit, page int) {
	return util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)
}
