package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"storefront-api/internal/client"
	"storefront-api/internal/event"
	"storefront-api/internal/model"
	"storefront-api/internal/pricing"
	"storefront-api/internal/repository"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxOrderNumberAttempts = 5

type OrderService interface {
	PlaceOrder(ctx context.Context, principal Principal, in *PlaceOrderInput) (*PlacedOrder, error)
	GetOrder(ctx context.Context, principal Principal, orderID uint) (*model.Order, error)
	ListOrders(ctx context.Context, principal Principal) ([]*model.Order, error)
	UpdateFulfillment(ctx context.Context, principal Principal, orderID uint, in *FulfillmentInput) (*model.Order, error)
}

type PlaceOrderInput struct {
	DeliveryAddressID uint
	DeliveryOptionID  uint
	PaymentMethod     string
	Notes             string
}

type PlacedOrder struct {
	Order            *model.Order
	AuthorizationURL string
	AccessCode       string
	Message          string
}

type FulfillmentInput struct {
	Status         model.OrderStatus
	TrackingNumber string
}

// NewOrderNumber builds a time-prefixed, human-traceable order number.
func NewOrderNumber(now time.Time) string {
	return "ORD-" + now.UTC().Format("20060102") + "-" + ulid.Make().String()
}

type OrderOption func(*orderServiceImpl)

func WithClock(clock func() time.Time) OrderOption {
	return func(s *orderServiceImpl) { s.clock = clock }
}

func WithOrderNumberGenerator(gen func(time.Time) string) OrderOption {
	return func(s *orderServiceImpl) { s.newOrderNumber = gen }
}

type orderServiceImpl struct {
	db             *gorm.DB
	log            *zap.Logger
	gateway        client.PaymentGateway
	publisher      event.Publisher
	serviceBaseUrl string
	productRepo    repository.ProductRepository
	cartRepo       repository.CartRepository
	customerRepo   repository.CustomerRepository
	deliveryRepo   repository.DeliveryOptionRepository
	orderRepo      repository.OrderRepository
	clock          func() time.Time
	newOrderNumber func(time.Time) string
}

func NewOrderService(
	db *gorm.DB,
	log *zap.Logger,
	gateway client.PaymentGateway,
	publisher event.Publisher,
	serviceBaseUrl string,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	customerRepo repository.CustomerRepository,
	deliveryRepo repository.DeliveryOptionRepository,
	orderRepo repository.OrderRepository,
	opts ...OrderOption,
) OrderService {
	s := &orderServiceImpl{
		db:             db,
		log:            log.Named("orders"),
		gateway:        gateway,
		publisher:      publisher,
		serviceBaseUrl: strings.TrimRight(serviceBaseUrl, "/"),
		productRepo:    productRepo,
		cartRepo:       cartRepo,
		customerRepo:   customerRepo,
		deliveryRepo:   deliveryRepo,
		orderRepo:      orderRepo,
		clock:          time.Now,
		newOrderNumber: NewOrderNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checkout is everything resolved before the placement transaction starts.
type checkout struct {
	customer *model.Customer
	cart     *model.Cart
	address  *model.Address
	option   *model.DeliveryOption
	input    *PlaceOrderInput
	now      time.Time
}

func (s *orderServiceImpl) PlaceOrder(ctx context.Context, principal Principal, in *PlaceOrderInput) (*PlacedOrder, error) {
	switch in.PaymentMethod {
	case model.PaymentMethodCashOnDelivery, model.PaymentMethodCard:
	case "":
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidInput, in.PaymentMethod)
	}

	co, err := s.resolveCheckout(ctx, principal, in)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = s.assemble(ctx, tx, co)
		return err
	})
	if err != nil {
		var rejection *pricing.RejectionError
		if errors.As(err, &rejection) {
			s.log.Info("order rejected",
				zap.Uint("customer_id", co.customer.ID),
				zap.Uint("product_id", rejection.ProductID),
				zap.Error(err))
			return nil, err
		}

		s.log.Error("order placement failed",
			zap.Uint("customer_id", co.customer.ID),
			zap.Uint("cart_id", co.cart.ID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOrderPlacementFailed, err)
	}

	s.log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("order_total", order.OrderTotal.StringFixed(2)),
		zap.String("payment_method", order.PaymentMethod))
	s.publish(ctx, event.TypeOrderPlaced, order, map[string]interface{}{
		"order_total":    order.OrderTotal.StringFixed(2),
		"payment_method": order.PaymentMethod,
	})

	placed := &PlacedOrder{Order: order}
	if in.PaymentMethod == model.PaymentMethodCashOnDelivery {
		placed.Message = "Order placed successfully. Payment will be collected on delivery."
		return placed, nil
	}

	s.startGatewayPayment(ctx, co.customer, placed)
	return placed, nil
}

func (s *orderServiceImpl) resolveCheckout(ctx context.Context, principal Principal, in *PlaceOrderInput) (*checkout, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, principal.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCustomerProfileMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	cart, err := s.cartRepo.GetActiveCartWithLines(ctx, nil, model.CartOwner{UserID: principal.UserID})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	address, err := s.customerRepo.FindAddress(ctx, customer.ID, in.DeliveryAddressID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: delivery address %d", ErrInvalidSelection, in.DeliveryAddressID)
	}
	if err != nil {
		return nil, fmt.Errorf("load delivery address: %w", err)
	}

	option, err := s.deliveryRepo.FindActive(ctx, in.DeliveryOptionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: delivery option %d", ErrInvalidSelection, in.DeliveryOptionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load delivery option: %w", err)
	}

	return &checkout{
		customer: customer,
		cart:     cart,
		address:  address,
		option:   option,
		input:    in,
		now:      s.clock(),
	}, nil
}

// assemble runs inside the placement transaction. Any error it returns rolls
// back the order, its items and snapshots, the stock decrements and the cart deletion.
func (s *orderServiceImpl) assemble(ctx context.Context, tx *gorm.DB, co *checkout) (*model.Order, error) {
	priced := make([]*pricing.PricedLine, 0, len(co.cart.Lines))
	stockSeen := make(map[uint]int64, len(co.cart.Lines))
	subTotal := decimal.Zero

	for i := range co.cart.Lines {
		line := &co.cart.Lines[i]

		product, err := s.productRepo.FindByIDForUpdate(ctx, tx, line.ProductID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load product %d: %w", line.ProductID, err)
		}

		p, err := pricing.ValidateAndPrice(line, product, co.now)
		if err != nil {
			return nil, err
		}

		stockSeen[p.ProductID] = product.StockQuantity
		priced = append(priced, p)
		subTotal = subTotal.Add(p.LineTotal)
	}

	orderNumber, err := s.uniqueOrderNumber(ctx, tx, co.now)
	if err != nil {
		return nil, err
	}

	paymentStatus := model.PaymentStatusPendingGatewayPayment
	if co.input.PaymentMethod == model.PaymentMethodCashOnDelivery {
		paymentStatus = model.PaymentStatusUnpaid
	}

	order := &model.Order{
		OrderNumber:       orderNumber,
		CustomerID:        co.customer.ID,
		DeliveryAddressID: co.address.ID,
		DeliveryOptionID:  co.option.ID,
		DeliveryCost:      co.option.Cost.Round(2),
		OrderTotal:        subTotal.Round(2).Add(co.option.Cost).Round(2),
		PaymentMethod:     co.input.PaymentMethod,
		PaymentStatus:     paymentStatus,
		OrderStatus:       model.OrderStatusPending,
		Notes:             co.input.Notes,
		OrderedAt:         co.now,
	}
	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	items := make([]*model.OrderItem, len(priced))
	for i, p := range priced {
		items[i] = &model.OrderItem{
			OrderID:                 order.ID,
			ProductID:               p.ProductID,
			ProductName:             p.ProductName,
			PricePerUnitAtPurchase:  p.UnitPrice,
			UnitOfMeasureAtPurchase: p.UnitOfMeasure,
			Quantity:                p.Quantity,
			LineItemTotal:           p.LineTotal,
		}
	}
	if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("store order items: %w", err)
	}

	for _, p := range priced {
		ok, err := s.productRepo.DecrementStockIfSufficient(ctx, tx, p.ProductID, p.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement stock for product %d: %w", p.ProductID, err)
		}
		if !ok {
			return nil, &pricing.RejectionError{
				Reason:      pricing.ErrProductUnavailable,
				ProductID:   p.ProductID,
				ProductName: p.ProductName,
				Requested:   p.Quantity,
				Limit:       stockSeen[p.ProductID],
			}
		}
	}

	snapshots := []*model.OrderAddressSnapshot{
		addressSnapshot(order.ID, model.AddressTypeShipping, co.customer, co.address),
		addressSnapshot(order.ID, model.AddressTypeBilling, co.customer, co.address),
	}
	if err := s.orderRepo.CreateAddressSnapshots(ctx, tx, snapshots); err != nil {
		return nil, fmt.Errorf("store address snapshots: %w", err)
	}

	if err := s.cartRepo.DeleteCart(ctx, tx, co.cart.ID); err != nil {
		return nil, fmt.Errorf("delete cart: %w", err)
	}

	order.Items = make([]model.OrderItem, len(items))
	for i, item := range items {
		order.Items[i] = *item
	}
	order.Addresses = make([]model.OrderAddressSnapshot, len(snapshots))
	for i, snapshot := range snapshots {
		order.Addresses[i] = *snapshot
	}

	return order, nil
}

func (s *orderServiceImpl) uniqueOrderNumber(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		candidate := s.newOrderNumber(now)
		exists, err := s.orderRepo.OrderNumberExists(ctx, tx, candidate)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		s.log.Warn("order number collision", zap.String("order_number", candidate), zap.Int("attempt", attempt+1))
	}
	return "", fmt.Errorf("no unique order number after %d attempts", maxOrderNumberAttempts)
}

func addressSnapshot(orderID uint, addressType model.AddressType, customer *model.Customer, address *model.Address) *model.OrderAddressSnapshot {
	return &model.OrderAddressSnapshot{
		OrderID:       orderID,
		AddressType:   addressType,
		FullName:      customer.FullName(),
		Phone:         customer.Phone,
		StreetAddress: address.StreetAddress,
		City:          address.City,
		State:         address.State,
		PostalCode:    address.PostalCode,
		Country:       address.Country,
	}
}

// startGatewayPayment runs after commit. A failure here never undoes the order;
// it marks the order failed/cancelled and tells the customer so.
func (s *orderServiceImpl) startGatewayPayment(ctx context.Context, customer *model.Customer, placed *PlacedOrder) {
	order := placed.Order

	session, err := s.gateway.InitializeSession(ctx, &client.InitializeSessionRequest{
		Amount:      order.OrderTotal,
		Email:       customer.Email,
		Reference:   order.OrderNumber,
		CallbackURL: s.callbackURL(order.OrderNumber),
	})
	if err != nil {
		s.log.Error("payment session initialization failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))

		details := errorDetails(err)
		if uerr := s.orderRepo.MarkPaymentInitFailed(ctx, order.ID, details); uerr != nil {
			s.log.Error("mark order payment failed", zap.String("order_number", order.OrderNumber), zap.Error(uerr))
		} else {
			order.PaymentStatus = model.PaymentStatusFailed
			order.OrderStatus = model.OrderStatusCancelled
			order.PaymentDetails = details
		}
		s.publish(ctx, event.TypeOrderPaymentFailed, order, map[string]interface{}{"reason": "payment initialization failed"})

		placed.Message = "Order placed, but payment could not be initialized. The order has been cancelled and you have not been charged."
		return
	}

	if err := s.orderRepo.AttachGatewaySession(ctx, order.ID, session.Reference, string(session.Raw)); err != nil {
		s.log.Warn("store payment session on order",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	} else {
		reference := session.Reference
		order.PaymentGatewayTransactionID = &reference
		order.PaymentDetails = string(session.Raw)
	}

	placed.AuthorizationURL = session.SessionURL
	placed.AccessCode = session.AccessCode
	placed.Message = "Order placed. Complete your payment at the authorization URL."
}

func (s *orderServiceImpl) callbackURL(orderNumber string) string {
	return fmt.Sprintf("%s/api/payments/callback?reference=%s", s.serviceBaseUrl, url.QueryEscape(orderNumber))
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, principal Principal, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if principal.IsAdmin() {
		return order, nil
	}

	customer, err := s.customerRepo.FindByUserID(ctx, principal.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer.ID != order.CustomerID {
		return nil, ErrForbidden
	}

	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, principal Principal) ([]*model.Order, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, principal.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return []*model.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	return s.orderRepo.ListByCustomer(ctx, customer.ID)
}

// UpdateFulfillment advances an order: processing → shipped → delivered.
// Gateway orders reach processing through their payment; cash-on-delivery orders
// are moved there by an admin and are marked paid when delivered.
func (s *orderServiceImpl) UpdateFulfillment(ctx context.Context, principal Principal, orderID uint, in *FulfillmentInput) (*model.Order, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	current, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	cashOnDelivery := current.PaymentMethod == model.PaymentMethodCashOnDelivery

	now := s.clock()
	var from model.OrderStatus
	collected := false
	updates := map[string]interface{}{"order_status": in.Status}
	switch in.Status {
	case model.OrderStatusProcessing:
		if !cashOnDelivery {
			return nil, fmt.Errorf("%w: gateway orders move to processing once paid", ErrInvalidTransition)
		}
		from = model.OrderStatusPending
	case model.OrderStatusShipped:
		from = model.OrderStatusProcessing
		updates["dispatched_at"] = now
		if in.TrackingNumber != "" {
			updates["tracking_number"] = in.TrackingNumber
		}
	case model.OrderStatusDelivered:
		from = model.OrderStatusShipped
		updates["delivered_at"] = now
		if cashOnDelivery && current.PaymentStatus == model.PaymentStatusUnpaid {
			updates["payment_status"] = model.PaymentStatusPaid
			collected = true
		}
	default:
		return nil, fmt.Errorf("%w: cannot move an order to %q", ErrInvalidTransition, in.Status)
	}

	applied, err := s.orderRepo.UpdateFulfillment(ctx, orderID, from, updates)
	if err != nil {
		return nil, fmt.Errorf("update fulfillment: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: order is %s, expected %s", ErrInvalidTransition, order.OrderStatus, from)
	}

	s.log.Info("order fulfillment updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("order_status", string(order.OrderStatus)))
	if collected {
		s.publish(ctx, event.TypeOrderPaid, order, map[string]interface{}{
			"payment_method": order.PaymentMethod,
			"order_total":    order.OrderTotal.StringFixed(2),
		})
	}

	return order, nil
}

func (s *orderServiceImpl) publish(ctx context.Context, eventType string, order *model.Order, payload map[string]interface{}) {
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

func errorDetails(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}
