package service

import (
	"context"
	"encoding/json"
	"storefront-api/internal/client"
	"storefront-api/internal/config"
	"storefront-api/internal/event"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

type fakeGateway struct {
	mu sync.Mutex

	secret       string
	initErr      error
	verification *client.Verification
	verifyErr    error
	verifyPanics bool

	initRequests []*client.InitializeSessionRequest
	verifyCalls  int
}

func (g *fakeGateway) InitializeSession(_ context.Context, req *client.InitializeSessionRequest) (*client.GatewaySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initRequests = append(g.initRequests, req)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &client.GatewaySession{
		SessionURL: "https://checkout.example/" + req.Reference,
		AccessCode: "access-" + req.Reference,
		Reference:  req.Reference,
		Raw:        json.RawMessage(`{"access_code":"access"}`),
	}, nil
}

func (g *fakeGateway) VerifyByReference(_ context.Context, reference string) (*client.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyPanics {
		panic("verify exploded")
	}
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verification, nil
}

func (g *fakeGateway) IsValidSignature(rawBody []byte, signature string) bool {
	if g.secret == "" {
		return true
	}
	return client.SignPayload(g.secret, rawBody) == signature
}

func (g *fakeGateway) HasWebhookSecret() bool {
	return g.secret != ""
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *fakePublisher) Publish(_ context.Context, evt event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, evt := range p.events {
		types[i] = evt.Type
	}
	return types
}

type testEnv struct {
	db        *gorm.DB
	gateway   *fakeGateway
	publisher *fakePublisher

	productRepo      repository.ProductRepository
	cartRepo         repository.CartRepository
	customerRepo     repository.CustomerRepository
	deliveryRepo     repository.DeliveryOptionRepository
	orderRepo        repository.OrderRepository
	notificationRepo repository.PaymentNotificationRepository

	orders   OrderService
	payments PaymentService
	carts    CartService
	catalog  CatalogService
	profiles CustomerService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.OpenDatabase(config.Database{
		Driver: "sqlite",
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T, opts ...OrderOption) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := zaptest.NewLogger(t)

	env := &testEnv{
		db:        db,
		gateway:   &fakeGateway{secret: testWebhookSecret},
		publisher: &fakePublisher{},

		productRepo:      repository.NewProductRepository(db),
		cartRepo:         repository.NewCartRepository(db),
		customerRepo:     repository.NewCustomerRepository(db),
		deliveryRepo:     repository.NewDeliveryOptionRepository(db),
		orderRepo:        repository.NewOrderRepository(db),
		notificationRepo: repository.NewPaymentNotificationRepository(db),
	}

	env.orders = NewOrderService(db, log, env.gateway, env.publisher, "http://shop.local/",
		env.productRepo, env.cartRepo, env.customerRepo, env.deliveryRepo, env.orderRepo, opts...)
	env.payments = NewPaymentService(log, env.gateway, env.publisher, "ngn", env.orderRepo, env.notificationRepo)
	env.carts = NewCartService(log, env.productRepo, env.cartRepo)
	env.catalog = NewCatalogService(log, env.productRepo)
	env.profiles = NewCustomerService(env.customerRepo, env.deliveryRepo)
	return env
}

func (e *testEnv) product(t *testing.T, name, price string, stock, minQty int64) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:             name,
		UnitOfMeasure:    "kg",
		PricePerUnit:     decimal.RequireFromString(price),
		StockQuantity:    stock,
		MinOrderQuantity: minQty,
		IsActive:         true,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) deliveryOption(t *testing.T, cost string, active bool) *model.DeliveryOption {
	t.Helper()
	o := &model.DeliveryOption{Name: "Standard", Cost: decimal.RequireFromString(cost), IsActive: active}
	require.NoError(t, e.db.Create(o).Error)
	return o
}

// shopper is a user with a customer profile and one address.
type shopper struct {
	principal Principal
	customer  *model.Customer
	address   *model.Address
}

func (e *testEnv) shopper(t *testing.T, userID uint) *shopper {
	t.Helper()
	c := &model.Customer{UserID: userID, FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "+2348000000000"}
	require.NoError(t, e.db.Create(c).Error)

	a := &model.Address{CustomerID: c.ID, StreetAddress: "12 Marina Rd", City: "Lagos", State: "Lagos", PostalCode: "101001", Country: "NG"}
	require.NoError(t, e.db.Create(a).Error)

	return &shopper{
		principal: Principal{UserID: userID, Role: RoleCustomer},
		customer:  c,
		address:   a,
	}
}

// putInCart writes the line straight to the store, skipping the cart service's checks.
func (e *testEnv) putInCart(t *testing.T, s *shopper, p *model.Product, quantity int64) *model.Cart {
	t.Helper()
	ctx := context.Background()
	cart, err := e.cartRepo.GetOrCreateActiveCart(ctx, model.CartOwner{UserID: s.principal.UserID})
	require.NoError(t, err)

	require.NoError(t, e.cartRepo.UpsertLine(ctx, &model.CartLine{
		CartID:        cart.ID,
		ProductID:     p.ID,
		Quantity:      quantity,
		PricePerUnit:  p.PricePerUnit,
		UnitOfMeasure: p.UnitOfMeasure,
		LineTotal:     p.PricePerUnit.Mul(decimal.NewFromInt(quantity)),
	}))
	return cart
}

func (e *testEnv) reloadProduct(t *testing.T, id uint) *model.Product {
	t.Helper()
	p, err := e.productRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (e *testEnv) reloadOrder(t *testing.T, id uint) *model.Order {
	t.Helper()
	o, err := e.orderRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
