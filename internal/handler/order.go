package handler

import (
	"net/http"
	"storefront-api/internal/dto"
	"storefront-api/internal/model"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	placed, err := h.orderService.PlaceOrder(ctx, p, &service.PlaceOrderInput{
		DeliveryAddressID: req.DeliveryAddressID,
		DeliveryOptionID:  req.DeliveryOptionID,
		PaymentMethod:     req.PaymentMethod,
		Notes:             req.Notes,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, &dto.PlaceOrderResponse{
		Message:          placed.Message,
		Order:            placed.Order,
		AuthorizationURL: placed.AuthorizationURL,
		AccessCode:       placed.AccessCode,
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrder(ctx, p, orderID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListOrders(ctx, p)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateFulfillment(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.FulfillmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.orderService.UpdateFulfillment(ctx, p, orderID, &service.FulfillmentInput{
		Status:         model.OrderStatus(req.Status),
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}
