package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "payment-intents"

const eventTypeIntentCreated = "PaymentIntentCreated"

type IntentPublisher interface {
	PublishIntent(ctx context.Context, intent *domain.PaymentIntent) error
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type intentEvent struct {
	IntentID  string      `json:"intent_id"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	CartID    int64       `json:"cart_id"`
	CreatedAt time.Time   `json:"created_at"`
}

type KafkaPublisher struct {
	timeout time.Duration
	writer  MessageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{timeout: 5 * time.Second, writer: w}
}

func NewPublisherWithWriter(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{timeout: 5 * time.Second, writer: writer}
}

func (p *KafkaPublisher) PublishIntent(ctx context.Context, intent *domain.PaymentIntent) error {
	payload, err := json.Marshal(intentEvent{
		IntentID:  intent.ID,
		Amount:    json.Number(intent.Amount.StringFixed(2)),
		Currency:  intent.Currency,
		CartID:    intent.CartID,
		CreatedAt: intent.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal intent event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(intent.CartID, 10)), // cart_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventTypeIntentCreated)},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("failed to publish intent %s: %w", intent.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
