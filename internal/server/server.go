package server

import (
	"context"
	"net/http"
	"storefront-api/internal/handler"
	appmiddleware "storefront-api/internal/middleware"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Services struct {
	Orders    service.OrderService
	Payments  service.PaymentService
	Carts     service.CartService
	Catalog   service.CatalogService
	Customers service.CustomerService
}

type Server struct {
	echo            *echo.Echo
	log             *zap.Logger
	jwtSecret       string
	orderHandler    *handler.OrderHandler
	paymentHandler  *handler.PaymentHandler
	cartHandler     *handler.CartHandler
	catalogHandler  *handler.CatalogHandler
	customerHandler *handler.CustomerHandler
}

func NewServer(log *zap.Logger, jwtSecret string, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:            e,
		log:             log.Named("http"),
		jwtSecret:       jwtSecret,
		orderHandler:    handler.NewOrderHandler(services.Orders),
		paymentHandler:  handler.NewPaymentHandler(services.Payments),
		cartHandler:     handler.NewCartHandler(services.Carts),
		catalogHandler:  handler.NewCatalogHandler(services.Catalog),
		customerHandler: handler.NewCustomerHandler(services.Customers),
	}

	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			s.log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, handler.CartTokenHeader},
		ExposeHeaders: []string{handler.CartTokenHeader},
	}))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")
	requireAuth := appmiddleware.RequireAuth(s.jwtSecret)
	optionalAuth := appmiddleware.OptionalAuth(s.jwtSecret)

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- catalog --------
	api.GET("/products", s.catalogHandler.ListProducts)
	api.GET("/products/:id", s.catalogHandler.GetProduct)
	api.PUT("/products/:id/discount", s.catalogHandler.SetDiscount, requireAuth)
	api.GET("/delivery-options", s.customerHandler.ListDeliveryOptions)

	// -------- cart (guests use X-Cart-Token) --------
	cart := api.Group("/cart", optionalAuth)
	cart.GET("", s.cartHandler.GetCart)
	cart.DELETE("", s.cartHandler.Clear)
	cart.POST("/items", s.cartHandler.AddItem)
	cart.PUT("/items/:productId", s.cartHandler.UpdateItem)
	cart.DELETE("/items/:productId", s.cartHandler.RemoveItem)

	// -------- customer --------
	api.POST("/customers/me", s.customerHandler.CreateProfile, requireAuth)
	api.GET("/customers/me", s.customerHandler.GetProfile, requireAuth)
	api.GET("/addresses", s.customerHandler.ListAddresses, requireAuth)
	api.POST("/addresses", s.customerHandler.CreateAddress, requireAuth)

	// -------- orders --------
	orders := api.Group("/orders", requireAuth)
	orders.POST("", s.orderHandler.PlaceOrder)
	orders.GET("", s.orderHandler.ListOrders)
	orders.GET("/:id", s.orderHandler.GetOrder)
	orders.PATCH("/:id/fulfillment", s.orderHandler.UpdateFulfillment)

	// -------- payment webhooks / callbacks --------
	payments := api.Group("/payments")
	payments.POST("/webhook", s.paymentHandler.Webhook)
	payments.GET("/callback", s.paymentHandler.Callback)
}

// handleError logs server-side failures with their cause before echo renders them.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	cause := err
	status := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		cause = he.Internal
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(cause))
	}

	s.echo.DefaultHTTPErrorHandler(err, c)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
