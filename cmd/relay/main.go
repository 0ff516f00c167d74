package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ecowallet/internal/common/config"
	"ecowallet/internal/common/logging"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/infrastructure/postgres"
	"ecowallet/internal/wallet/relay"
)

// relay drains the postgres outbox into the AMQP exchange.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithCorrelationID(ctx, vo.NewCorrelationID())

	pool, err := cfg.NewPostgresPool(ctx)
	if err != nil {
		logging.ErrorContext(ctx, "Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	publisher, err := relay.NewRabbitMQ(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logging.ErrorContext(ctx, "Failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	r := relay.New(postgres.NewDataStore(pool), publisher, cfg.RelayInterval, cfg.RelayBatchSize)
	if err := r.Run(ctx); err != nil {
		logging.ErrorContext(ctx, "Outbox relay failed", "error", err)
		os.Exit(1)
	}
}
