package handler

import (
	"net/http"
	"storefront-api/internal/dto"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
)

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

func (h *CustomerHandler) CreateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	customer, err := h.customerService.CreateProfile(ctx, p, &service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	customer, err := h.customerService.GetProfile(ctx, p)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	addresses, err := h.customerService.ListAddresses(ctx, p)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, addresses)
}

func (h *CustomerHandler) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.AddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	address, err := h.customerService.CreateAddress(ctx, p, &service.AddressInput{
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, address)
}

func (h *CustomerHandler) ListDeliveryOptions(c echo.Context) error {
	ctx := c.Request().Context()

	options, err := h.customerService.ListDeliveryOptions(ctx)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, options)
}
