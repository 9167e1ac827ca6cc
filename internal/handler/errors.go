package handler

import (
	"errors"
	"net/http"
	"storefront-api/internal/dto"
	"storefront-api/internal/middleware"
	"storefront-api/internal/pricing"
	"storefront-api/internal/service"
	"strconv"

	"github.com/labstack/echo/v4"
)

// httpError maps a service error onto the status the API reports for it.
func httpError(err error) error {
	var rejection *pricing.RejectionError
	if errors.As(err, &rejection) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, &dto.RejectionResponse{
			Message:     rejection.Error(),
			ProductID:   rejection.ProductID,
			ProductName: rejection.ProductName,
			Requested:   rejection.Requested,
			Limit:       rejection.Limit,
		}).SetInternal(err)
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidSelection),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrCustomerProfileMissing),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartLineNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.Is(err, service.ErrProfileExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error()).SetInternal(err)
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden").SetInternal(err)
	case errors.Is(err, service.ErrOrderPlacementFailed):
		return echo.NewHTTPError(http.StatusInternalServerError, "order placement failed, nothing was charged or reserved; please retry").SetInternal(err)
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func principal(c echo.Context) (service.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return service.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return p, nil
}
