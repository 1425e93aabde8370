package ratelimit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fixedClock(l *Limiter, at *time.Time) {
	l.now = func() time.Time { return *at }
}

func TestAllow_BurstThenReject(t *testing.T) {
	l := NewLimiter(1, 3, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	fixedClock(l, &now)

	for i := 0; i < 3; i++ {
		if err := l.Allow("10.0.0.1"); err != nil {
			t.Fatalf("request %d within burst rejected: %v", i, err)
		}
	}
	if err := l.Allow("10.0.0.1"); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	// Another client has its own bucket.
	if err := l.Allow("10.0.0.2"); err != nil {
		t.Errorf("independent client rejected: %v", err)
	}

	// One second refills one token at 1 rps.
	now = now.Add(time.Second)
	if err := l.Allow("10.0.0.1"); err != nil {
		t.Errorf("refilled token rejected: %v", err)
	}
}

func TestAllow_ExpiresIdleClients(t *testing.T) {
	l := NewLimiter(1, 1, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	fixedClock(l, &now)

	_ = l.Allow("a")
	_ = l.Allow("b")
	if l.Clients() != 2 {
		t.Fatalf("clients = %d, want 2", l.Clients())
	}

	now = now.Add(2 * time.Minute)
	_ = l.Allow("c")
	if l.Clients() != 1 {
		t.Errorf("clients = %d, want 1 after expiry", l.Clients())
	}
}

func TestNewLimiter_MinimumBurst(t *testing.T) {
	if l := NewLimiter(5, 0, time.Minute); l.Burst != 1 {
		t.Errorf("burst = %d, want 1", l.Burst)
	}
}

func TestMiddleware(t *testing.T) {
	l := NewLimiter(0.001, 1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
	req.RemoteAddr = "192.0.2.7:51000"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("first request: status %d", w.Code)
	}

	// Same host from a different port shares the bucket.
	req.RemoteAddr = "192.0.2.7:51001"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status %d, want 429", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "rate limit exceeded" {
		t.Errorf("body = %v", body)
	}
}
