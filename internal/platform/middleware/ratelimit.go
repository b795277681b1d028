package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// tokenBucket refills lazily on each call instead of running a ticker, so an
// idle client costs nothing.
type tokenBucket struct {
	mu       sync.Mutex
	level    float64
	capacity float64
	perSec   float64
	last     time.Time
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	capacity := float64(burst)
	return &tokenBucket{
		level:    capacity,
		capacity: capacity,
		perSec:   rate,
		last:     time.Now(),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.level < 1 {
		return false
	}
	b.level--
	return true
}

// refill must be called with the lock held.
func (b *tokenBucket) refill(now time.Time) {
	b.level += now.Sub(b.last).Seconds() * b.perSec
	if b.level > b.capacity {
		b.level = b.capacity
	}
	b.last = now
}

// retryAfter estimates whole seconds until the next token, for the
// Retry-After header. Never less than 1.
func (b *tokenBucket) retryAfter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.perSec <= 0 {
		return 1
	}
	return int((1-b.level)/b.perSec) + 1
}

// rateLimiterStore holds one bucket per client key.
type rateLimiterStore struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
	config  RateLimitConfig
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{
		buckets: make(map[string]*tokenBucket),
		config:  cfg,
	}
}

func (s *rateLimiterStore) getBucket(key string) *tokenBucket {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[key]; ok {
		return b
	}
	b = newTokenBucket(s.config.RequestsPerSecond, s.config.BurstSize)
	s.buckets[key] = b
	return b
}

// RateLimit limits requests per client IP, one lazily refilled token bucket
// per key.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hdr := c.Response().Header()
			hdr.Set("X-RateLimit-Limit", limit)

			bucket := store.getBucket(c.RealIP())
			if !bucket.allow() {
				hdr.Set("Retry-After", strconv.Itoa(bucket.retryAfter()))
				hdr.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
