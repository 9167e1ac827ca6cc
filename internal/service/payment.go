package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"storefront-api/internal/client"
	"storefront-api/internal/event"
	"storefront-api/internal/model"
	"storefront-api/internal/pricing"
	"storefront-api/internal/repository"
	"strings"

	"go.uber.org/zap"
)

// AckResponse is what the webhook endpoint answers the gateway with.
type AckResponse struct {
	Status  int
	Message string
}

type PaymentState struct {
	OrderNumber   string              `json:"order_number"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	OrderStatus   model.OrderStatus   `json:"order_status"`
}

type PaymentService interface {
	HandleNotification(ctx context.Context, rawPayload []byte, signature string) AckResponse
	PaymentStatus(ctx context.Context, reference string) (*PaymentState, error)
}

type paymentServiceImpl struct {
	log              *zap.Logger
	gateway          client.PaymentGateway
	publisher        event.Publisher
	currency         string
	orderRepo        repository.OrderRepository
	notificationRepo repository.PaymentNotificationRepository
}

func NewPaymentService(
	log *zap.Logger,
	gateway client.PaymentGateway,
	publisher event.Publisher,
	currency string,
	orderRepo repository.OrderRepository,
	notificationRepo repository.PaymentNotificationRepository,
) PaymentService {
	return &paymentServiceImpl{
		log:              log.Named("payments"),
		gateway:          gateway,
		publisher:        publisher,
		currency:         strings.ToUpper(currency),
		orderRepo:        orderRepo,
		notificationRepo: notificationRepo,
	}
}

// notification accumulates what is known about one delivery for the audit row.
type notification struct {
	reference string
	eventType string
	outcome   string
}

func (s *paymentServiceImpl) HandleNotification(ctx context.Context, rawPayload []byte, signature string) (ack AckResponse) {
	n := &notification{}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("webhook handler panic",
				zap.Any("panic", r),
				zap.String("reference", n.reference),
				zap.Stack("stack"))
			n.outcome = "internal_error"
			ack = AckResponse{Status: http.StatusInternalServerError, Message: "Internal server error"}
		}
		s.record(ctx, n, ack.Status)
	}()

	return s.handle(ctx, n, rawPayload, signature)
}

func (s *paymentServiceImpl) handle(ctx context.Context, n *notification, rawPayload []byte, signature string) AckResponse {
	if !s.gateway.HasWebhookSecret() {
		s.log.Warn("webhook secret not configured, accepting notification without signature check")
	} else if !s.gateway.IsValidSignature(rawPayload, signature) {
		s.log.Warn("webhook signature mismatch", zap.Int("body_bytes", len(rawPayload)))
		n.outcome = "invalid_signature"
		return AckResponse{Status: http.StatusUnauthorized, Message: "Invalid signature"}
	}

	var payload model.GatewayWebhookEvent
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		s.log.Warn("malformed webhook payload", zap.Error(err))
		n.outcome = "malformed"
		return AckResponse{Status: http.StatusBadRequest, Message: "Malformed payload"}
	}
	n.eventType = payload.Event
	n.reference = payload.Data.Reference

	if payload.Event != model.EventChargeSuccess {
		s.log.Info("webhook event ignored", zap.String("event", payload.Event))
		n.outcome = "ignored"
		return AckResponse{Status: http.StatusOK, Message: "Event received"}
	}

	if payload.Data.Reference == "" {
		n.outcome = "malformed"
		return AckResponse{Status: http.StatusBadRequest, Message: "Missing transaction reference"}
	}

	order, err := s.orderRepo.FindByOrderNumber(ctx, payload.Data.Reference)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("webhook for unknown order", zap.String("reference", payload.Data.Reference))
		n.outcome = "order_not_found"
		return AckResponse{Status: http.StatusNotFound, Message: "Order not found"}
	}
	if err != nil {
		return s.internalError(n, "load order", err)
	}

	if order.PaymentMethod == model.PaymentMethodCashOnDelivery {
		s.log.Warn("gateway notification for cash-on-delivery order ignored", zap.String("order_number", order.OrderNumber))
		n.outcome = "ignored"
		return AckResponse{Status: http.StatusOK, Message: "Event received"}
	}

	if order.PaymentStatus == model.PaymentStatusPaid {
		n.outcome = "duplicate"
		return AckResponse{Status: http.StatusOK, Message: "Payment already processed"}
	}

	verification, err := s.gateway.VerifyByReference(ctx, order.OrderNumber)
	if err != nil || !verification.Success {
		var details string
		if err != nil {
			s.log.Error("payment verification failed",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
			details = errorDetails(err)
		} else {
			s.log.Info("payment not successful at gateway", zap.String("order_number", order.OrderNumber))
			details = string(verification.Raw)
		}
		return s.reject(ctx, n, order, model.PaymentStatusFailed, details,
			AckResponse{Status: http.StatusOK, Message: "Payment not successful"})
	}

	expectedMinor := pricing.ToMinorUnits(order.OrderTotal)
	actualCurrency := strings.ToUpper(verification.Currency)
	if verification.AmountMinorUnits != expectedMinor || actualCurrency != s.currency {
		s.log.Warn("payment amount mismatch",
			zap.String("order_number", order.OrderNumber),
			zap.Int64("expected_amount", expectedMinor),
			zap.Int64("actual_amount", verification.AmountMinorUnits),
			zap.String("expected_currency", s.currency),
			zap.String("actual_currency", actualCurrency))
		return s.reject(ctx, n, order, model.PaymentStatusAmountMismatch, string(verification.Raw),
			AckResponse{Status: http.StatusBadRequest, Message: "Payment amount or currency mismatch"})
	}

	applied, err := s.orderRepo.MarkPaid(ctx, order.ID, verification.GatewayTransactionID, string(verification.Raw))
	if err != nil {
		return s.internalError(n, "mark order paid", err)
	}
	if !applied {
		n.outcome = "duplicate"
		return AckResponse{Status: http.StatusOK, Message: "Payment already processed"}
	}

	s.log.Info("payment confirmed",
		zap.String("order_number", order.OrderNumber),
		zap.String("gateway_transaction_id", verification.GatewayTransactionID))
	s.publish(ctx, event.TypeOrderPaid, order, map[string]interface{}{
		"gateway_transaction_id": verification.GatewayTransactionID,
		"amount_minor_units":     verification.AmountMinorUnits,
		"currency":               actualCurrency,
	})

	n.outcome = "paid"
	return AckResponse{Status: http.StatusOK, Message: "Payment confirmed"}
}

func (s *paymentServiceImpl) reject(ctx context.Context, n *notification, order *model.Order, status model.PaymentStatus, details string, ack AckResponse) AckResponse {
	applied, err := s.orderRepo.MarkPaymentRejected(ctx, order.ID, status, details)
	if err != nil {
		return s.internalError(n, "mark payment "+string(status), err)
	}
	if !applied {
		// paid meanwhile, or already rejected by an earlier delivery
		n.outcome = "duplicate"
		return AckResponse{Status: http.StatusOK, Message: "Payment already processed"}
	}

	s.publish(ctx, event.TypeOrderPaymentFailed, order, map[string]interface{}{"payment_status": status})
	n.outcome = string(status)
	return ack
}

func (s *paymentServiceImpl) internalError(n *notification, op string, err error) AckResponse {
	s.log.Error("webhook processing failed",
		zap.String("op", op),
		zap.String("reference", n.reference),
		zap.Error(err))
	n.outcome = "internal_error"
	return AckResponse{Status: http.StatusInternalServerError, Message: "Internal server error"}
}

func (s *paymentServiceImpl) record(ctx context.Context, n *notification, status int) {
	err := s.notificationRepo.Record(ctx, &model.PaymentNotification{
		Reference:  n.reference,
		EventType:  n.eventType,
		Outcome:    n.outcome,
		HTTPStatus: status,
	})
	if err != nil {
		s.log.Warn("record payment notification", zap.String("reference", n.reference), zap.Error(err))
	}
}

func (s *paymentServiceImpl) publish(ctx context.Context, eventType string, order *model.Order, payload map[string]interface{}) {
	err := s.publisher.Publish(ctx, event.Event{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Payload:     payload,
	})
	if err != nil {
		s.log.Warn("publish event", zap.String("event_type", eventType), zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
}

// PaymentStatus reports where an order's payment stands. It never changes the order;
// the webhook is the only writer.
func (s *paymentServiceImpl) PaymentStatus(ctx context.Context, reference string) (*PaymentState, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}

	order, err := s.orderRepo.FindByOrderNumber(ctx, reference)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	return &PaymentState{
		OrderNumber:   order.OrderNumber,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.OrderStatus,
	}, nil
}
