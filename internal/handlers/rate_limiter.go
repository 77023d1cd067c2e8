package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/aromelle/api/internal/platform/httpx"
)

// RateLimitSettings carries the throttling thresholds enforced by the
// router. A zero threshold disables the corresponding limiter.
type RateLimitSettings struct {
	// DefaultPerMinute bounds requests per client address across the API.
	DefaultPerMinute int
	// AuthenticatedPerMinute bounds per-user endpoints such as promotion
	// validation, keyed by UID instead of address.
	AuthenticatedPerMinute int
	// WebhookBurst bounds how many webhook deliveries a sender may burst
	// before the sustained per-minute rate applies.
	WebhookBurst int
}

type rateLimiter interface {
	Allow(key string) bool
}

// keyedRateLimiter keeps one token bucket per caller key. Buckets refill
// continuously, so a caller that stays under the sustained rate never
// observes a rejection.
type keyedRateLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func newKeyedRateLimiter(perMinute, burst int) rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &keyedRateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *keyedRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()
	return bucket.Allow()
}

// rateLimitByAddress throttles requests keyed by the client address. It
// expects middleware.RealIP to have rewritten RemoteAddr already.
func rateLimitByAddress(limiter rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientAddress(r)) {
				httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many requests, slow down", http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
