package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestKeyedRateLimiterBoundsBurstPerKey(t *testing.T) {
	limiter := newKeyedRateLimiter(60, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("user_1") {
			t.Fatalf("request %d within burst was rejected", i+1)
		}
	}
	if limiter.Allow("user_1") {
		t.Fatalf("request beyond burst was allowed")
	}
	if !limiter.Allow("user_2") {
		t.Fatalf("an exhausted bucket throttled a different key")
	}
}

func TestKeyedRateLimiterZeroThresholdDisables(t *testing.T) {
	if limiter := newKeyedRateLimiter(0, 10); limiter != nil {
		t.Fatalf("expected nil limiter for zero threshold, got %T", limiter)
	}
}

func TestRouterRateLimitsWebhookGroup(t *testing.T) {
	router := NewRouter(
		WithWebhookRoutes(func(r chi.Router) {
			r.Post("/psp", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}),
		WithRateLimits(RateLimitSettings{WebhookBurst: 2}),
	)

	deliver := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/psp", nil)
		req.RemoteAddr = "203.0.113.7:4321"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := deliver(); code != http.StatusOK {
			t.Fatalf("delivery %d status = %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := deliver(); code != http.StatusTooManyRequests {
		t.Fatalf("status beyond burst = %d, want %d", code, http.StatusTooManyRequests)
	}

	// Other groups stay open when only the webhook threshold is set.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouterDefaultRateLimitKeyedByAddress(t *testing.T) {
	router := NewRouter(WithRateLimits(RateLimitSettings{DefaultPerMinute: 2}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("198.51.100.1:1000"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := send("198.51.100.1:1000"); code != http.StatusTooManyRequests {
		t.Fatalf("status beyond limit = %d, want %d", code, http.StatusTooManyRequests)
	}
	if code := send("198.51.100.2:1000"); code != http.StatusOK {
		t.Fatalf("different address status = %d, want %d", code, http.StatusOK)
	}
}
