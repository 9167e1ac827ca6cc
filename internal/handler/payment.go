package handler

import (
	"io"
	"net/http"
	"storefront-api/internal/dto"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	signatureHeader = "X-Signature"
	maxWebhookBody  = 1 << 20
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Webhook hands the exact request bytes to reconciliation; the signature is
// computed over them, so the body must not be bound or re-encoded.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, &dto.MessageResponse{Message: "Unreadable body"})
	}

	ack := h.paymentService.HandleNotification(ctx, body, c.Request().Header.Get(signatureHeader))

	return c.JSON(ack.Status, &dto.MessageResponse{Message: ack.Message})
}

// Callback is where the gateway sends the shopper back. It only reports state.
func (h *PaymentHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	state, err := h.paymentService.PaymentStatus(ctx, c.QueryParam("reference"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, state)
}
