package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"storefront-api/internal/client"
	"storefront-api/internal/config"
	"storefront-api/internal/event"
	"storefront-api/internal/logger"
	"storefront-api/internal/repository"
	"storefront-api/internal/server"
	"storefront-api/internal/service"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := client.OpenDatabase(cfg.Database)
	if err != nil {
		log.Fatal("open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	deliveryRepo := repository.NewDeliveryOptionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewPaymentNotificationRepository(db)

	if cfg.Database.Seed {
		ctx := context.Background()
		if err := productRepo.Seed(ctx); err != nil {
			log.Fatal("seed products", zap.Error(err))
		}
		if err := deliveryRepo.Seed(ctx); err != nil {
			log.Fatal("seed delivery options", zap.Error(err))
		}
	}

	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	gateway := client.NewPaymentGatewayClient(&cfg.PaymentGateway)
	if !gateway.HasWebhookSecret() {
		log.Warn("PAYMENT_GATEWAY_WEBHOOK_SECRET is empty, webhook signatures will not be checked")
	}

	services := server.Services{
		Orders: service.NewOrderService(
			db, log, gateway, publisher, cfg.BaseURL,
			productRepo,
			cartRepo,
			customerRepo,
			deliveryRepo,
			orderRepo,
		),
		Payments:  service.NewPaymentService(log, gateway, publisher, cfg.PaymentGateway.Currency, orderRepo, notificationRepo),
		Carts:     service.NewCartService(log, productRepo, cartRepo),
		Catalog:   service.NewCatalogService(log, productRepo),
		Customers: service.NewCustomerService(customerRepo, deliveryRepo),
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(log, cfg.Auth.JWTSecret, services)

	log.Info("Starting HTTP server", zap.String("addr", serverAddr), zap.String("environment", cfg.Environment.Name))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
}

// newPublisher uses RabbitMQ when configured and falls back to logging events.
func newPublisher(cfg *config.Config, log *zap.Logger) event.Publisher {
	if cfg.RabbitMQ.URL == "" {
		return event.NewLogPublisher(log.Named("events"))
	}

	publisher, err := event.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.Warn("rabbitmq unavailable, logging events instead", zap.Error(err))
		return event.NewLogPublisher(log.Named("events"))
	}
	return publisher
}
