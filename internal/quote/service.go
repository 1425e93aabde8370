// Package quote provides the HTTP handlers for pricing listings, browsing
// the product catalog and the legacy form endpoints, plus the live quote
// feed over WebSocket.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/events"
	"github.com/atmx/listing-engine/internal/metrics"
	"github.com/atmx/listing-engine/internal/model"
	"github.com/atmx/listing-engine/internal/pricing"
)

const publishTimeout = 5 * time.Second

// Pricer computes quotes. *pricing.Engine satisfies it.
type Pricer interface {
	Quote(ctx context.Context, req model.PricingRequest) (*model.PricingResult, error)
	Config() pricing.Config
}

// Service serves quote and catalog requests. It holds no per-request state.
type Service struct {
	pricer    Pricer
	catalog   catalog.Catalog
	publisher events.Publisher
	wsHub     *WSHub // optional WebSocket hub for live quotes

	inflight sync.WaitGroup
}

// NewService creates a quote service. A nil publisher discards events and a
// nil hub disables broadcasting.
func NewService(pricer Pricer, cat catalog.Catalog, pub events.Publisher, hub *WSHub) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{
		pricer:    pricer,
		catalog:   cat,
		publisher: pub,
		wsHub:     hub,
	}
}

// --- Request/Response types ---

// QuoteRequest is the JSON body for POST /api/v1/quotes. Omitted
// discount_percent means 0 and omitted quantity means 1.
type QuoteRequest struct {
	SKU             string          `json:"sku"`
	SitePrice       decimal.Decimal `json:"site_price"`
	MarkupPercent   decimal.Decimal `json:"markup_percent"`
	ListingTier     string          `json:"listing_tier"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Quantity        *int            `json:"quantity"`
}

func (q QuoteRequest) pricingRequest() model.PricingRequest {
	qty := 1
	if q.Quantity != nil {
		qty = *q.Quantity
	}
	return model.PricingRequest{
		SKU:             q.SKU,
		SitePrice:       q.SitePrice,
		MarkupPercent:   q.MarkupPercent,
		ListingTier:     model.ListingTier(q.ListingTier),
		DiscountPercent: q.DiscountPercent,
		Quantity:        qty,
	}
}

// QuoteResponse is the JSON body returned from POST /api/v1/quotes.
type QuoteResponse struct {
	QuoteID     string            `json:"quote_id"`
	SKU         string            `json:"sku"`
	ListingTier model.ListingTier `json:"listing_tier"`
	Quantity    int               `json:"quantity"`
	model.PricingResult
}

// --- HTTP Handlers ---

// CreateQuote handles POST /api/v1/quotes
func (s *Service) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var body QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		metrics.QuoteErrors.WithLabelValues("bad_request").Inc()
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req := body.pricingRequest()
	res, err := s.quote(r.Context(), &req)
	if err != nil {
		status, msg := errorStatus(err)
		writeError(w, msg, status)
		return
	}

	quoteID := uuid.New().String()
	s.announce(r.Context(), quoteID, req, *res)

	writeJSON(w, http.StatusOK, QuoteResponse{
		QuoteID:       quoteID,
		SKU:           req.SKU,
		ListingTier:   req.ListingTier,
		Quantity:      req.Quantity,
		PricingResult: *res,
	})
}

// ListProducts handles GET /api/v1/products
func (s *Service) ListProducts(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.List(r.Context())
	if err != nil {
		slog.Error("list catalog failed", "err", err)
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.CatalogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetProduct handles GET /api/v1/products/{sku}
func (s *Service) GetProduct(w http.ResponseWriter, r *http.Request) {
	entry, err := s.catalog.Lookup(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		status, msg := errorStatus(err)
		writeError(w, msg, status)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// GetFees handles GET /api/v1/fees, returning the active rates and tables.
func (s *Service) GetFees(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pricer.Config())
}

// Wait blocks until in-flight event publications finish.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// --- Internals ---

// quote validates and prices req in place, recording metrics and logs.
func (s *Service) quote(ctx context.Context, req *model.PricingRequest) (*model.PricingResult, error) {
	start := time.Now()

	if err := pricing.ValidateRequest(req); err != nil {
		metrics.QuoteErrors.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	res, err := s.pricer.Quote(ctx, *req)
	metrics.QuoteLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QuoteErrors.WithLabelValues(errorReason(err)).Inc()
		if _, msg := errorStatus(err); msg == "internal error" {
			slog.Error("quote failed", "sku", req.SKU, "err", err)
		}
		return nil, err
	}

	metrics.QuotesTotal.WithLabelValues(string(res.Regime), tierLabel(req.ListingTier)).Inc()
	slog.Info("quote computed",
		"sku", req.SKU,
		"tier", req.ListingTier,
		"quantity", req.Quantity,
		"regime", res.Regime,
		"derived_price", res.DerivedPrice.String(),
		"profit", res.Profit.String(),
		"margin", res.MarginPercent.String(),
	)
	return res, nil
}

// announce publishes the quote event in the background and pushes it to
// WebSocket clients. Neither can fail the request.
func (s *Service) announce(ctx context.Context, quoteID string, req model.PricingRequest, res model.PricingResult) {
	event := events.NewQuoteEvent(ctx, quoteID, req, res)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(pubCtx, event); err != nil {
			slog.Warn("quote event not published", "quote_id", quoteID, "err", err)
		}
	}()

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:            "quote_computed",
			QuoteID:         quoteID,
			SKU:             req.SKU,
			ListingTier:     string(req.ListingTier),
			Regime:          string(res.Regime),
			DerivedPrice:    res.DerivedPrice.String(),
			DiscountedPrice: res.DiscountedPrice.String(),
			Profit:          res.Profit.String(),
			MarginPercent:   res.MarginPercent.String(),
		})
	}
}

// tierLabel keeps metric cardinality bounded for free-form tier names.
func tierLabel(t model.ListingTier) string {
	if t.Known() {
		return string(t)
	}
	return "other"
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return "not_found"
	case errors.Is(err, pricing.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, pricing.ErrZeroCost):
		return "zero_cost"
	case errors.Is(err, pricing.ErrZeroDiscountedPrice):
		return "zero_discounted_price"
	default:
		return "internal"
	}
}

// errorStatus maps domain errors onto an HTTP status and client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "SKU not found"
	case errors.Is(err, pricing.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, pricing.ErrZeroCost):
		return http.StatusUnprocessableEntity, "catalog cost is zero, markup ratio is undefined"
	case errors.Is(err, pricing.ErrZeroDiscountedPrice):
		return http.StatusUnprocessableEntity, "discounted price is zero, margin is undefined"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
