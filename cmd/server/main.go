package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/app"
	"github.com/nekogravitycat/shareit-backend/internal/config"
	"github.com/nekogravitycat/shareit-backend/internal/db"
	"github.com/nekogravitycat/shareit-backend/internal/events"
	"github.com/nekogravitycat/shareit-backend/internal/obs"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/clock"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/logger"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/storage"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	shutdownTracer, err := obs.InitTracer(ctx, "shareit-backend", cfg.OTLPEndpoint, cfg.AppEnv)
	if err != nil {
		zlog.Fatal("failed to init tracer", zap.Error(err))
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(cfg.DBDSN); err != nil {
			zlog.Fatal("failed to migrate db", zap.Error(err))
		}
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		zlog.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	var idem idempotency.Store
	if cfg.RedisAddr != "" {
		rdb, err := idempotency.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		idem = idempotency.NewRedisStore(rdb, "idem:")
	}

	publisher, err := newPublisher(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to init event publisher", zap.Error(err))
	}

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		zlog.Fatal("failed to init storage", zap.Error(err))
	}

	container := app.NewContainer(app.Config{
		IsProduction:   cfg.IsProduction(),
		ProdOrigins:    cfg.ProdOrigins,
		DBPool:         pool,
		Logger:         zlog,
		Clock:          clock.New(),
		Publisher:      publisher,
		Idempotency:    idem,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Storage:        store,
	})

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		zlog.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("events", cfg.EventsDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	zlog.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server forced to shutdown", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		zlog.Warn("failed to close event publisher", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		zlog.Warn("failed to flush traces", zap.Error(err))
	}

	zlog.Info("server exited gracefully")
}

func newPublisher(cfg *config.Config, log *zap.Logger) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log), nil
	case config.EventsRabbitMQ:
		return events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	default:
		return events.NopPublisher{}, nil
	}
}
