package api

import (
	"sync"

	"provider/internal/config"

	"golang.org/x/time/rate"
)

const defaultBurst = 5

// rateLimiter keeps one token bucket per client key, created on first use.
type rateLimiter struct {
	buckets sync.Map // client key -> *rate.Limiter
	limit   rate.Limit
	burst   int
}

func newRateLimiter(cfg *config.APIConfig) *rateLimiter {
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return &rateLimiter{limit: rate.Limit(cfg.RateLimit.RPS), burst: burst}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*rate.Limiter)
	}
	actual, _ := l.buckets.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	return actual.(*rate.Limiter)
}
