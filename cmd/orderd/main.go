package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderflow/backend/internal/infrastructure/config"
	"github.com/orderflow/backend/internal/infrastructure/event"
	"github.com/orderflow/backend/internal/infrastructure/logger"
	"github.com/orderflow/backend/internal/infrastructure/messaging"
	"github.com/orderflow/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// orderd drains the order outbox: entries written transactionally alongside
// order aggregates are picked up here and published to Kafka.
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

	log.Info("starting order service",
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

	serializer := event.NewRegisteredEventSerializer()

	publisher := messaging.NewKafkaPublisher(messaging.KafkaPublisherConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	}, serializer, log)
	defer func() {
		_ = publisher.Close()
	}()

	outboxRepo := event.NewGormOutboxRepository(db.DB)
	processor := event.NewOutboxProcessor(outboxRepo, publisher, serializer, event.OutboxProcessorConfig{
		BatchSize:        cfg.Event.BatchSize,
		PollInterval:     cfg.Event.PollInterval,
		BatchTimeout:     cfg.Event.BatchTimeout,
		StuckTimeout:     cfg.Event.StuckTimeout,
		CleanupEnabled:   cfg.Event.CleanupEnabled,
		CleanupRetention: cfg.Event.CleanupRetention,
		CleanupInterval:  cfg.Event.CleanupInterval,
	}, log)

	ctx := context.Background()
	if err := processor.Start(ctx); err != nil {
		log.Fatal("failed to start outbox processor", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down order service")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := processor.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop outbox processor", zap.Error(err))
	}

	log.Info("order service stopped")
}
