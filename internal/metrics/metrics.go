// Package metrics provides Prometheus instrumentation for the listing engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuotesTotal counts successful quotes by fee regime and listing tier.
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_quotes_total",
		Help: "Total number of listing quotes computed",
	}, []string{"regime", "tier"})

	// QuoteErrors counts failed quotes by reason.
	QuoteErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_quote_errors_total",
		Help: "Quotes that failed, by reason",
	}, []string{"reason"})

	QuoteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "listing_quote_latency_seconds",
		Help:    "Quote computation latency including catalog lookup",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	})

	// CatalogLookups counts lookups by backend and result (hit, miss, error).
	CatalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_catalog_lookups_total",
		Help: "Catalog lookups by backend and result",
	}, []string{"backend", "result"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_catalog_cache_hits_total",
		Help: "Catalog lookups served from Redis",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_catalog_cache_misses_total",
		Help: "Catalog lookups that fell through to the primary catalog",
	})

	// RateLimitRejections counts requests refused by the per-client limiter.
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	})

	// EventsPublished counts quote events handed to the broker, by outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_events_published_total",
		Help: "Quote events published, by outcome",
	}, []string{"outcome"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listing_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listing_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics labelled by the chi route pattern, so
// SKUs in paths do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		duration := time.Since(start).Seconds()

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}
