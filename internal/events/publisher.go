// Package events publishes computed quotes to Kafka for downstream
// consumers such as repricing jobs and analytics.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/atmx/listing-engine/internal/metrics"
	"github.com/atmx/listing-engine/internal/model"
)

// EventType names the kind of event on the topic.
type EventType string

const EventTypeQuoteComputed EventType = "quote.computed"

// QuoteEvent is the message body written for each successful quote.
type QuoteEvent struct {
	ID            string               `json:"id"`
	Type          EventType            `json:"type"`
	QuoteID       string               `json:"quote_id"`
	SKU           string               `json:"sku"`
	Request       model.PricingRequest `json:"request"`
	Result        model.PricingResult  `json:"result"`
	Timestamp     time.Time            `json:"timestamp"`
	CorrelationID string               `json:"correlation_id,omitempty"`
}

// NewQuoteEvent builds an event, taking the correlation ID from the chi
// request ID in ctx when present.
func NewQuoteEvent(ctx context.Context, quoteID string, req model.PricingRequest, res model.PricingResult) *QuoteEvent {
	return &QuoteEvent{
		ID:            uuid.NewString(),
		Type:          EventTypeQuoteComputed,
		QuoteID:       quoteID,
		SKU:           req.SKU,
		Request:       req,
		Result:        res,
		Timestamp:     time.Now().UTC(),
		CorrelationID: middleware.GetReqID(ctx),
	}
}

// Publisher delivers quote events.
type Publisher interface {
	Publish(ctx context.Context, event *QuoteEvent) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes quote events keyed by SKU, so every quote for a
// product lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *QuoteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.SKU),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}

	metrics.EventsPublished.WithLabelValues("ok").Inc()
	slog.Debug("quote event published", "event_id", event.ID, "quote_id", event.QuoteID, "sku", event.SKU)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *QuoteEvent) error { return nil }
func (NopPublisher) Close() error { return nil }

// MemoryPublisher records events in memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []*QuoteEvent
}

func (m *MemoryPublisher) Publish(_ context.Context, event *QuoteEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of the recorded events.
func (m *MemoryPublisher) Events() []*QuoteEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*QuoteEvent(nil), m.events...)
}
