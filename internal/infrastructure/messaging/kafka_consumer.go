package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// KafkaConsumerConfig holds configuration for the Kafka consumer
type KafkaConsumerConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	WorkerCount    int
	HandlerTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// DefaultKafkaConsumerConfig returns default configuration
func DefaultKafkaConsumerConfig() KafkaConsumerConfig {
	return KafkaConsumerConfig{
		Brokers:        []string{"localhost:9092"},
		Topic:          "orderflow.events",
		GroupID:        "inventory-service",
		WorkerCount:    4,
		HandlerTimeout: 30 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   time.Second,
	}
}

// messageReader abstracts the kafka reader for testing
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads domain events from Kafka and dispatches them to
// registered handlers through a bounded worker pool. Handler failures are
// retried with bounded exponential backoff before the offset is committed,
// giving at-least-once delivery; handlers are expected to be idempotent.
// Shutdown stops fetching but lets in-flight messages finish handling and
// committing under the caller's deadline.
type KafkaConsumer struct {
	reader     messageReader
	serializer *event.EventSerializer
	registry   *event.HandlerRegistry
	config     KafkaConsumerConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(config KafkaConsumerConfig, serializer *event.EventSerializer, logger *zap.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: config.Brokers,
		Topic:   config.Topic,
		GroupID: config.GroupID,
	})

	return &KafkaConsumer{
		reader:     reader,
		serializer: serializer,
		registry:   event.NewHandlerRegistry(),
		config:     config,
		logger:     logger,
	}
}

// Subscribe registers a handler for specific event types
// If no event types are provided, the handler's own EventTypes() are used
func (c *KafkaConsumer) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	c.registry.Register(handler, eventTypes...)
	c.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler from the subscription list
func (c *KafkaConsumer) Unsubscribe(handler shared.EventHandler) {
	c.registry.Unregister(handler)
}

// Start starts the consumer workers. Each worker fetches, dispatches and
// commits messages independently; partition assignment keeps events for one
// aggregate on a single worker.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	group, ctx := errgroup.WithContext(ctx)
	c.group = group

	for i := 0; i < c.config.WorkerCount; i++ {
		worker := i
		group.Go(func() error {
			return c.consumeLoop(ctx, worker)
		})
	}

	c.logger.Info("kafka consumer started",
		zap.String("topic", c.config.Topic),
		zap.String("group_id", c.config.GroupID),
		zap.Int("workers", c.config.WorkerCount),
	)

	return nil
}

// Stop gracefully stops the consumer, draining in-flight messages
func (c *KafkaConsumer) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- c.group.Wait()
	}()

	var waitErr error
	select {
	case err := <-done:
		waitErr = err
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := c.reader.Close(); err != nil {
		c.logger.Error("failed to close kafka reader", zap.Error(err))
		return err
	}

	c.logger.Info("kafka consumer stopped")
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	return nil
}

// consumeLoop is the per-worker fetch/dispatch/commit loop. Only the fetch
// observes the consumer's cancellation; once a message is in flight it is
// handled and committed on an uncancelable context so shutdown never aborts
// it mid-line.
func (c *KafkaConsumer) consumeLoop(ctx context.Context, worker int) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Debug("consumer worker exiting", zap.Int("worker", worker))
				return ctx.Err()
			}
			c.logger.Error("failed to fetch message",
				zap.Int("worker", worker),
				zap.Error(err),
			)
			continue
		}

		workCtx := context.WithoutCancel(ctx)

		if err := c.processMessage(workCtx, msg); err != nil {
			// Retries are exhausted. The offset still advances so a poison
			// message cannot wedge the partition, but the loss is loud.
			c.logger.Error("message dropped after exhausting retries",
				zap.Int("worker", worker),
				zap.String("key", string(msg.Key)),
				zap.Int64("offset", msg.Offset),
				zap.String("event_id", headerValue(msg, HeaderEventID)),
				zap.String("event_type", headerValue(msg, HeaderEventType)),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(workCtx, msg); err != nil {
			c.logger.Error("failed to commit message",
				zap.Int("worker", worker),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// processMessage dispatches a message, retrying handler failures with
// bounded exponential backoff before giving up
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	backoff := c.config.RetryBackoff

	var err error
	for attempt := 0; ; attempt++ {
		err = c.handleMessage(ctx, msg)
		if err == nil || attempt >= c.config.MaxRetries {
			return err
		}

		c.logger.Warn("handler failed, retrying message",
			zap.Int("attempt", attempt+1),
			zap.Int64("offset", msg.Offset),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return err
		}
		backoff *= 2
	}
}

// handleMessage deserializes a Kafka message and dispatches it to handlers.
// Malformed messages are logged and skipped: they would fail identically on
// every retry. Handler errors are returned so the caller can retry.
func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	eventType := headerValue(msg, HeaderEventType)
	if eventType == "" {
		c.logger.Warn("message missing event_type header, skipping",
			zap.String("key", string(msg.Key)),
			zap.Int64("offset", msg.Offset),
		)
		return nil
	}

	evt, err := c.serializer.Deserialize(eventType, msg.Value)
	if err != nil {
		c.logger.Error("failed to deserialize message",
			zap.String("event_type", eventType),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return nil
	}

	handlers := c.registry.GetHandlers(eventType)
	if len(handlers) == 0 {
		c.logger.Debug("no handlers for event type, skipping",
			zap.String("event_type", eventType),
		)
		return nil
	}

	handleCtx, cancel := context.WithTimeout(ctx, c.config.HandlerTimeout)
	defer cancel()

	var handlerErrs []error
	for _, handler := range handlers {
		if err := c.dispatch(handleCtx, handler, evt); err != nil {
			c.logger.Error("handler failed to process message",
				zap.String("event_type", eventType),
				zap.String("event_id", evt.EventID().String()),
				zap.Error(err),
			)
			handlerErrs = append(handlerErrs, err)
		}
	}
	return errors.Join(handlerErrs...)
}

// dispatch invokes a handler, converting a panic into an error
func (c *KafkaConsumer) dispatch(ctx context.Context, handler shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panicked",
				zap.String("event_type", evt.EventType()),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, evt)
}

// headerValue returns the value of a message header, or empty string
func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
