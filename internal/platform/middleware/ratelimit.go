package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration. A non-positive
// RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// clientLimiters holds one token bucket per client address.
type clientLimiters struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newClientLimiters(cfg RateLimitConfig) *clientLimiters {
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	return &clientLimiters{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
	}
}

func (s *clientLimiters) get(key string) *rate.Limiter {
	s.mu.RLock()
	l, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return l
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.buckets[key]; ok {
		return l
	}
	l = rate.NewLimiter(s.limit, s.burst)
	s.buckets[key] = l
	return l
}

// RateLimit limits requests per client IP with a token bucket and answers
// 429 with Retry-After once the bucket is empty.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	limiters := newClientLimiters(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)

			l := limiters.get(c.RealIP())
			r := l.Reserve()
			if delay := r.Delay(); delay > 0 {
				r.Cancel()
				h.Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
