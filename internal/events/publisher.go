package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Publisher emits order lifecycle events.
type Publisher interface {
	PublishOrder(ctx context.Context, eventName string, order *domain.Order) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
}

// batchTimeout caps how long a synchronous write waits for a batch to fill.
// Events are published one at a time from request handlers.
const batchTimeout = 10 * time.Millisecond

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return newKafkaPublisher(newKafkaWriter(brokers, topic), logger)
}

func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: 3 * time.Second, logger: logger}
}

// PublishOrder keys the message by order id so events for one order stay in
// one partition.
func (p *KafkaPublisher) PublishOrder(ctx context.Context, eventName string, order *domain.Order) error {
	env := newOrderEnvelope(eventName, order, time.Now())

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventName, err)
	}

	msg := kafka.Message{
		Key:   []byte(env.PartitionKey),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventName)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(pubCtx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventName, err)
	}
	p.logger.Debug("event published",
		zap.String("event", eventName),
		zap.String("event_id", env.EventID),
		zap.String("order_id", env.PartitionKey),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrder(context.Context, string, *domain.Order) error { return nil }
func (NoopPublisher) Close() error                                             { return nil }
