// Package events publishes order domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
)

var (
	_ ports.EventPublisher = (*KafkaPublisher)(nil)
	_ ports.EventPublisher = NopPublisher{}
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEvent is the wire envelope written to the orders topic.
type OrderEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    int64     `json:"order_id"`
	Total      int64     `json:"total"`
	TaxTotal   int64     `json:"tax_total"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaPublisher writes order events keyed by order id, so every event of an
// order lands on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *slog.Logger
	newID  func() string
}

// PublisherOption customizes the publisher.
type PublisherOption func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *KafkaPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithWriter replaces the Kafka writer, mostly for tests.
func WithWriter(writer MessageWriter) PublisherOption {
	return func(p *KafkaPublisher) {
		if writer != nil {
			p.writer = writer
		}
	}
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, opts ...PublisherOption) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
		},
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Publish writes all events in a single batch.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		envelope, err := p.envelope(event)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", envelope.Type, err)
		}
		headers := []kafka.Header{
			{Key: "event_type", Value: []byte(envelope.Type)},
			{Key: "event_id", Value: []byte(envelope.ID)},
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(strconv.FormatInt(envelope.OrderID, 10)),
			Value:   payload,
			Headers: injectTraceHeaders(ctx, headers),
			Time:    envelope.OccurredAt,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to publish order events",
			slog.Int("events", len(msgs)), slog.String("error", err.Error()))
		return err
	}
	p.logger.LogAttrs(ctx, slog.LevelDebug, "order events published", slog.Int("events", len(msgs)))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) envelope(event domain.Event) (OrderEvent, error) {
	out := OrderEvent{ID: p.newID(), Type: event.EventName(), OccurredAt: event.OccurredAt().UTC()}
	switch e := event.(type) {
	case domain.OrderTaxesRecalculated:
		out.OrderID, out.Total, out.TaxTotal, out.Currency = e.OrderID, e.Total, e.TaxTotal, e.Currency
	case domain.OrderFinalized:
		out.OrderID, out.Total, out.TaxTotal, out.Currency = e.OrderID, e.Total, e.TaxTotal, e.Currency
	default:
		return OrderEvent{}, fmt.Errorf("unsupported order event %T", event)
	}
	return out, nil
}

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...domain.Event) error { return nil }
