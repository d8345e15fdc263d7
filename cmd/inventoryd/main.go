package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/orderflow/backend/internal/application/inventory"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/cache"
	"github.com/orderflow/backend/internal/infrastructure/config"
	"github.com/orderflow/backend/internal/infrastructure/event"
	"github.com/orderflow/backend/internal/infrastructure/logger"
	"github.com/orderflow/backend/internal/infrastructure/messaging"
	"github.com/orderflow/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// inventoryd consumes OrderCreated facts from Kafka and reconciles stock.
// Delivery is at-least-once, so the reconciler is wrapped with an
// idempotency check backed by Redis (or memory when Redis is unavailable).
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting inventory service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if err := persistence.AutoMigrate(db.DB); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}

	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	serializer := event.NewRegisteredEventSerializer()
	outboxPublisher := event.NewOutboxPublisher(serializer)

	stockRepo := persistence.NewGormStockRepository(db.DB, outboxPublisher)
	shortfallRepo := persistence.NewGormShortfallRepository(db.DB)

	reconciler := inventoryapp.NewOrderCreatedHandler(stockRepo, shortfallRepo, log)
	idempotentReconciler := event.NewIdempotentHandler(reconciler, idempotencyStore, log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			Enabled: true,
			TTL:     cfg.Consumer.IdempotencyTTL,
		}),
	)

	consumer := messaging.NewKafkaConsumer(messaging.KafkaConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.GroupID,
		WorkerCount:    cfg.Consumer.WorkerCount,
		HandlerTimeout: cfg.Consumer.HandlerTimeout,
		MaxRetries:     cfg.Consumer.MaxRetries,
		RetryBackoff:   cfg.Consumer.RetryBackoff,
	}, serializer, log)
	consumer.Subscribe(idempotentReconciler)

	ctx := context.Background()
	if err := consumer.Start(ctx); err != nil {
		log.Fatal("failed to start kafka consumer", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down inventory service")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := consumer.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop kafka consumer", zap.Error(err))
	}

	log.Info("inventory service stopped")
}
