package handler

import (
	"net/http"
	"storefront-api/internal/dto"
	"storefront-api/internal/middleware"
	"storefront-api/internal/model"
	"storefront-api/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CartTokenHeader carries the guest cart key for anonymous shoppers.
const CartTokenHeader = "X-Cart-Token"

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func cartOwner(c echo.Context) model.CartOwner {
	if p, ok := middleware.PrincipalFrom(c); ok {
		return model.CartOwner{UserID: p.UserID}
	}
	return model.CartOwner{GuestToken: c.Request().Header.Get(CartTokenHeader)}
}

func cartResponse(c echo.Context, status int, cart *model.Cart, owner model.CartOwner) error {
	resp := &dto.CartResponse{Cart: cart, Total: cart.Total()}
	if owner.IsGuest() && owner.GuestToken != "" {
		resp.GuestToken = owner.GuestToken
		c.Response().Header().Set(CartTokenHeader, owner.GuestToken)
	}
	return c.JSON(status, resp)
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	owner := cartOwner(c)

	cart, err := h.cartService.GetCart(ctx, owner)
	if err != nil {
		return httpError(err)
	}

	return cartResponse(c, http.StatusOK, cart, owner)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	owner := cartOwner(c)
	if owner.IsGuest() && owner.GuestToken == "" {
		owner.GuestToken = uuid.NewString()
	}

	cart, err := h.cartService.AddLine(ctx, owner, req.ProductID, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	return cartResponse(c, http.StatusOK, cart, owner)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := idParam(c, "productId")
	if err != nil {
		return err
	}

	var req dto.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	owner := cartOwner(c)
	cart, err := h.cartService.UpdateLine(ctx, owner, productID, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	return cartResponse(c, http.StatusOK, cart, owner)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := idParam(c, "productId")
	if err != nil {
		return err
	}

	owner := cartOwner(c)
	cart, err := h.cartService.RemoveLine(ctx, owner, productID)
	if err != nil {
		return httpError(err)
	}

	return cartResponse(c, http.StatusOK, cart, owner)
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.Clear(ctx, cartOwner(c)); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
