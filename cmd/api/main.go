package main

import (
	"fmt"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/logging"
	"marketplace-checkout/internal/mailer"
	"marketplace-checkout/internal/notify"
	"marketplace-checkout/internal/queue"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/server"
	"marketplace-checkout/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"

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

	logger := logging.Must(cfg.Log, cfg.Environment.Name)
	defer logger.Sync()

	db := client.InitMysqlClient(cfg.DatabaseURL)

	paystackGateway := gateway.NewPaystackClient(&cfg.Paystack)
	stripeGateway := gateway.NewStripeClient(&cfg.Stripe)

	producer := queue.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	vendorRepo := repository.NewVendorRepository(db)

	dispatcher := notify.NewDispatcher(cfg.Notification, mailer.NewPostmarkClient(&cfg.Mailer), logger)

	checkoutService := service.NewCheckoutService(
		db,
		cartRepo,
		productRepo,
		orderRepo,
		paymentRepo,
		customerRepo,
		paystackGateway,
		stripeGateway,
		producer,
		logger,
	)
	paymentService := service.NewPaymentService(
		db,
		orderRepo,
		paymentRepo,
		customerRepo,
		vendorRepo,
		paystackGateway,
		stripeGateway,
		producer,
		dispatcher,
		logger,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(checkoutService, paymentService, cfg, logger)

	logger.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}
