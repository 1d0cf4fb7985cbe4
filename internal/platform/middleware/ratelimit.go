package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
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

// visitor pairs a client's limiter with its last activity, so idle entries
// can be pruned.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitorStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	config   RateLimitConfig
}

const visitorIdleTTL = 10 * time.Minute

func newVisitorStore(cfg RateLimitConfig) *visitorStore {
	return &visitorStore{
		visitors: make(map[string]*visitor),
		config:   cfg,
	}
}

func (s *visitorStore) limiter(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[key]
	if !ok {
		if len(s.visitors) > 4096 {
			s.prune(now)
		}
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.config.RequestsPerSecond), s.config.BurstSize)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// prune drops visitors idle past the TTL. Caller holds the lock.
func (s *visitorStore) prune(now time.Time) {
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTTL {
			delete(s.visitors, key)
		}
	}
}

// RateLimit returns a rate limiting middleware keyed by client IP. Rejected
// requests get a 429 with a Retry-After hint derived from the refill rate.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newVisitorStore(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lim := store.limiter(c.RealIP())
			c.Response().Header().Set("X-RateLimit-Limit", limitHeader)
			if !lim.Allow() {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter(cfg.RequestsPerSecond)))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

func retryAfter(rps float64) int {
	if rps <= 0 {
		return 1
	}
	return int(math.Ceil(1 / rps))
}
