// Package ratelimit throttles API clients with one token bucket per client
// address. Buckets idle for longer than the expiry are dropped.
package ratelimit

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/atmx/listing-engine/internal/metrics"
)

// ErrLimitExceeded is returned by Allow when the client's bucket is empty.
var ErrLimitExceeded = errors.New("ratelimit: rate limit exceeded")

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter holds a token bucket per client key.
type Limiter struct {
	// Rate is the sustained number of requests per second per client.
	Rate rate.Limit

	// Burst is the number of requests a client may make at once.
	Burst int

	// ExpiresIn is how long an idle client's bucket is kept.
	ExpiresIn time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	lastGC   time.Time
	now      func() time.Time
}

// NewLimiter creates a limiter allowing rps requests per second with the
// given burst. Burst is raised to 1 when smaller.
func NewLimiter(rps float64, burst int, expiresIn time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: expiresIn,
		visitors:  make(map[string]*visitor),
		now:       time.Now,
	}
}

// Allow consumes one token from key's bucket.
func (l *Limiter) Allow(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.gc(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.Rate, l.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	if !v.limiter.AllowN(now, 1) {
		return ErrLimitExceeded
	}
	return nil
}

// gc drops idle buckets at most once per expiry period. Callers hold mu.
func (l *Limiter) gc(now time.Time) {
	if l.ExpiresIn <= 0 || now.Sub(l.lastGC) < l.ExpiresIn {
		return
	}
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ExpiresIn {
			delete(l.visitors, key)
		}
	}
	l.lastGC = now
}

// Clients returns the number of tracked buckets.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Middleware rejects requests over the limit with 429. Clients are keyed by
// the host part of RemoteAddr, which chi's RealIP middleware rewrites from
// proxy headers.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := l.Allow(clientKey(r)); err != nil {
			metrics.RateLimitRejections.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
