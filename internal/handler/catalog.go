package handler

import (
	"net/http"
	"storefront-api/internal/dto"
	"storefront-api/internal/pricing"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.catalogService.ListProducts(ctx)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	product, err := h.catalogService.GetProduct(ctx, productID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) SetDiscount(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}
	productID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.DiscountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	product, err := h.catalogService.SetDiscount(ctx, p, productID, pricing.Discount{
		Type:     pricing.DiscountType(req.Type),
		Value:    req.Value,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, product)
}
