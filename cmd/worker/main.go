package main

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/logging"
	"marketplace-checkout/internal/queue"
	"marketplace-checkout/internal/redisx"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/service"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// The worker consumes the job topics and runs the replay-safe handlers:
// stock settlement and shipping attachment.
func main() {
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
	rdb := redisx.New(cfg.Redis.Addr)

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	shippingRepo := repository.NewShippingRepository(db)

	jobService := service.NewJobService(db, orderRepo, productRepo, settlementRepo, shippingRepo, logger)

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, queue.Topics(), cfg.Kafka.Workers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	handler := func(ctx context.Context, env queue.Envelope) error {
		// Delivery-level dedup; the settlement marker in the database is the
		// real idempotency guard.
		seen, err := redisx.JobSeen(ctx, rdb, env.JobID)
		if err != nil {
			logger.Warn("job dedup check failed", zap.String("job_id", env.JobID), zap.Error(err))
		}
		if seen {
			logger.Info("skipping duplicate job delivery",
				zap.String("job", env.Job),
				zap.String("job_id", env.JobID))
			return nil
		}

		if err := jobService.Handle(ctx, env); err != nil {
			return err
		}

		if err := redisx.MarkJobSeen(ctx, rdb, env.JobID); err != nil {
			logger.Warn("mark job seen failed", zap.String("job_id", env.JobID), zap.Error(err))
		}
		return nil
	}

	logger.Info("starting job worker",
		zap.Strings("topics", queue.Topics()),
		zap.String("group", cfg.Kafka.GroupID),
		zap.Int("workers", cfg.Kafka.Workers))

	if err := consumer.Start(ctx, handler); err != nil {
		logger.Fatal("consumer stopped", zap.Error(err))
	}

	logger.Info("worker shut down")
}
