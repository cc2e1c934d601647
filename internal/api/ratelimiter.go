package api

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	reloadPath     = "/api/reload"
	reloadInterval = time.Second
	reloadBurst    = 2
)

type rateLimiter interface {
	Allow(r *http.Request) bool
}

// routeLimiter keeps separate token buckets for reads and reloads. A reload
// rebuilds the configuration from disk and gets its own, stricter budget.
type routeLimiter struct {
	reads   *rate.Limiter
	reloads *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &routeLimiter{
		reads:   rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		reloads: rate.NewLimiter(rate.Every(reloadInterval), reloadBurst),
	}
}

func (l *routeLimiter) Allow(r *http.Request) bool {
	if l == nil {
		return true
	}
	if isReload(r) {
		return l.reloads.Allow()
	}
	return l.reads.Allow()
}

func isReload(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == reloadPath
}

// WithRateLimit configures the token bucket limiter. A non-positive rate or
// burst disables rate limiting, reloads included.
func WithRateLimit(ratePerSecond float64, burst int) RouterOption {
	return func(cfg *routerConfig) {
		if ratePerSecond <= 0 || burst <= 0 {
			cfg.rateLimiter = nil
			return
		}
		cfg.rateLimiter = newTokenBucketLimiter(ratePerSecond, burst)
	}
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(r) {
			next.ServeHTTP(w, r)
			return
		}
		if isReload(r) {
			w.Header().Set("Retry-After", strconv.Itoa(int(reloadInterval/time.Second)))
			writeError(w, http.StatusTooManyRequests, "Too many reloads", "configuration reloads are limited",
				"wait for the current configuration to settle before reloading again")
			return
		}
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many requests", "configuration API rate limit exceeded, please retry shortly")
	})
}
