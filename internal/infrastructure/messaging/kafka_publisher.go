package messaging

import (
	"context"
	"time"

	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Kafka message headers
const (
	HeaderEventType     = "event_type"
	HeaderEventID       = "event_id"
	HeaderAggregateType = "aggregate_type"
)

// KafkaPublisherConfig holds configuration for the Kafka publisher
type KafkaPublisherConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// DefaultKafkaPublisherConfig returns default configuration
func DefaultKafkaPublisherConfig() KafkaPublisherConfig {
	return KafkaPublisherConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "orderflow.events",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
}

// KafkaPublisher publishes domain events to a Kafka topic.
// Messages are keyed by aggregate id, so all events for one aggregate land
// on the same partition and consumers observe them in emission order.
type KafkaPublisher struct {
	writer     *kafka.Writer
	serializer *event.EventSerializer
	logger     *zap.Logger
}

// NewKafkaPublisher creates a new Kafka publisher
func NewKafkaPublisher(config KafkaPublisherConfig, serializer *event.EventSerializer, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		WriteTimeout: config.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Completion: func(messages []kafka.Message, err error) {
			for _, msg := range messages {
				if err != nil {
					logger.Error("kafka delivery failed",
						zap.String("key", string(msg.Key)),
						zap.Error(err),
					)
					continue
				}
				logger.Debug("kafka delivery confirmed",
					zap.String("key", string(msg.Key)),
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
				)
			}
		},
	}

	return &KafkaPublisher{
		writer:     writer,
		serializer: serializer,
		logger:     logger,
	}
}

// Publish publishes one or more domain events to Kafka
func (p *KafkaPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		payload, err := p.serializer.Serialize(evt)
		if err != nil {
			return err
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: payload,
			Headers: []kafka.Header{
				{Key: HeaderEventType, Value: []byte(evt.EventType())},
				{Key: HeaderEventID, Value: []byte(evt.EventID().String())},
				{Key: HeaderAggregateType, Value: []byte(evt.AggregateType())},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.Error("failed to write messages to kafka",
			zap.String("topic", p.writer.Topic),
			zap.Int("count", len(messages)),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// Close closes the underlying Kafka writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Ensure KafkaPublisher implements EventPublisher
var _ shared.EventPublisher = (*KafkaPublisher)(nil)
