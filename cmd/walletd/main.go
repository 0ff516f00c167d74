package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecowallet/internal/common/config"
	"ecowallet/internal/common/logging"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/api"
	"ecowallet/internal/wallet/application"
	"ecowallet/internal/wallet/domain"
	"ecowallet/internal/wallet/infrastructure/httpclient"
	"ecowallet/internal/wallet/infrastructure/memory"
	"ecowallet/internal/wallet/infrastructure/postgres"
	"ecowallet/internal/wallet/ledger"
	"ecowallet/internal/wallet/relay"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Generate correlation ID for startup
	startupCtx := logging.WithCorrelationID(context.Background(), vo.NewCorrelationID())

	logging.InfoContext(startupCtx, "Starting eco wallet",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage", cfg.Storage,
		"log_level", cfg.LogLevel,
	)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	b, err := newBackend(startupCtx, runCtx, cfg)
	if err != nil {
		logging.ErrorContext(startupCtx, "Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	defer b.close()

	registry := application.NewRegistry(b.transport, application.Options{
		DuplicateWindowMinutes: cfg.DuplicateWindowMinutes,
		NotificationCapacity:   cfg.NotificationCapacity,
		MaxWallets:             cfg.MaxCachedWallets,
	})

	routes := api.RouterConfig{
		Wallets:        api.NewWalletHandler(registry),
		Ready:          b.ready,
		Environment:    cfg.Environment,
		RequestTimeout: cfg.RequestTimeout,
	}
	if b.ledger != nil {
		routes.Ledger = api.NewLedgerHandler(b.ledger)
	}

	logging.InfoContext(startupCtx, "Wallet context initialized")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(routes),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logging.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down server")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logging.Info("Server stopped")
}

// backend is the storage the wallets run against.
type backend struct {
	transport domain.Transport
	ledger    api.Ledger
	ready     api.ReadinessCheck
	closers   []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// newBackend wires the backend selected by STORAGE. Background work started
// here stops when runCtx is canceled.
func newBackend(ctx, runCtx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := cfg.NewPostgresPool(ctx)
		if err != nil {
			return nil, err
		}
		store := postgres.NewDataStore(pool)
		service := ledger.NewService(store, nil)
		b := &backend{
			transport: service,
			ledger:    service,
			ready:     pool.Ping,
			closers:   []func(){pool.Close},
		}
		go recordPoolStats(runCtx, store)
		if err := startRelay(ctx, runCtx, cfg, store, b); err != nil {
			b.close()
			return nil, err
		}
		logging.InfoContext(ctx, "Using postgres storage")
		return b, nil

	case config.StorageRemote:
		client, err := httpclient.New(cfg.WalletAPIURL, httpclient.WithTimeout(cfg.TransportTimeout))
		if err != nil {
			return nil, err
		}
		logging.InfoContext(ctx, "Using remote ledger", "url", cfg.WalletAPIURL)
		return &backend{transport: client}, nil

	default:
		var opts []memory.Option
		if !cfg.RelayEmbedded {
			opts = append(opts, memory.WithOutboxCapacity(cfg.MemoryOutboxCapacity))
		}
		store := memory.NewDataStore(opts...)
		service := ledger.NewService(store, nil)
		b := &backend{transport: service, ledger: service}
		if err := startRelay(ctx, runCtx, cfg, store, b); err != nil {
			return nil, err
		}
		logging.InfoContext(ctx, "Using in-memory storage")
		return b, nil
	}
}

// startRelay runs the outbox relay in-process when RELAY_EMBEDDED is set.
func startRelay(ctx, runCtx context.Context, cfg *config.Config, store domain.AtomicExecutor, b *backend) error {
	if !cfg.RelayEmbedded {
		return nil
	}
	publisher, err := relay.NewRabbitMQ(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func() {
		if err := publisher.Close(); err != nil {
			logging.Warn("Failed to close publisher", "error", err)
		}
	})
	r := relay.New(store, publisher, cfg.RelayInterval, cfg.RelayBatchSize)
	go func() {
		if err := r.Run(runCtx); err != nil {
			logging.Error("Outbox relay failed", "error", err)
		}
	}()
	logging.InfoContext(ctx, "Embedded outbox relay started", "exchange", cfg.AMQPExchange)
	return nil
}

func recordPoolStats(ctx context.Context, store *postgres.DataStore) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.RecordPoolStats()
		}
	}
}
