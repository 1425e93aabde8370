package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func sampleEvent(ctx context.Context) *QuoteEvent {
	req := model.PricingRequest{
		SKU:         "A1",
		SitePrice:   decimal.NewFromInt(100),
		ListingTier: model.TierStandard,
		Quantity:    1,
	}
	res := model.PricingResult{Regime: model.RegimeShipping, Profit: decimal.RequireFromString("45.43")}
	return NewQuoteEvent(ctx, "q-1", req, res)
}

func TestKafkaPublisher_WritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "listing.quotes"}

	event := sampleEvent(context.Background())
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "A1" {
		t.Errorf("key = %q, want A1", msg.Key)
	}
	if len(msg.Headers) != 2 || string(msg.Headers[0].Value) != "quote.computed" {
		t.Errorf("headers = %+v", msg.Headers)
	}

	var decoded QuoteEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != event.ID || decoded.QuoteID != "q-1" || !decoded.Result.Profit.Equal(decimal.RequireFromString("45.43")) {
		t.Errorf("decoded event = %+v", decoded)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: %v, closed=%v", err, w.closed)
	}
}

func TestKafkaPublisher_ReturnsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}, topic: "listing.quotes"}

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	err := p.Publish(context.Background(), sampleEvent(context.Background()))
	if !errors.Is(err, boom) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if !strings.Contains(err.Error(), "listing.quotes") {
		t.Errorf("error should name the topic: %v", err)
	}
	// The caller decides how to report the failure.
	if logs.Len() != 0 {
		t.Errorf("Publish logged on failure: %s", logs.String())
	}
}

func TestNewQuoteEvent_CorrelationID(t *testing.T) {
	var ctx context.Context
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { ctx = r.Context() })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	middleware.RequestID(next).ServeHTTP(httptest.NewRecorder(), req)

	event := sampleEvent(ctx)
	if event.CorrelationID != "req-123" {
		t.Errorf("correlation id = %q, want req-123", event.CorrelationID)
	}
	if event.ID == "" || event.Type != EventTypeQuoteComputed || event.SKU != "A1" {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestMemoryPublisher(t *testing.T) {
	var m MemoryPublisher
	_ = m.Publish(context.Background(), sampleEvent(context.Background()))
	if got := len(m.Events()); got != 1 {
		t.Errorf("events = %d, want 1", got)
	}

	var nop NopPublisher
	if err := nop.Publish(context.Background(), nil); err != nil {
		t.Errorf("nop publish: %v", err)
	}
}
