package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetInMs int64
}

// CounterStore is the pluggable per-key window counter behind the rate
// limiter: an in-process map for single-instance deployments, Redis
// for multi-instance ones. Hit must atomically admit or deny a single
// request; a denied request never advances the counter.
type CounterStore interface {
	Hit(key string, limit int, window time.Duration) (Decision, error)
}

// RateLimiter enforces a fixed admission window per key. A burst at a
// window boundary can admit up to twice the nominal rate; that
// approximation is accepted.
type RateLimiter struct {
	Store  CounterStore
	Limit  int
	Window time.Duration
}

func NewRateLimiter(store CounterStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{Store: store, Limit: limit, Window: window}
}

// Check admits or denies one request for the given key.
func (rl *RateLimiter) Check(key string) (Decision, error) {
	return rl.Store.Hit(key, rl.Limit, rl.Window)
}

// MemoryCounterStore keeps window counters in process memory. Counters
// are lost on restart; the limit starts fresh, which is accepted.
type MemoryCounterStore struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	now     func() time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

func (s *MemoryCounterStore) Hit(key string, limit int, window time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		s.windows[key] = w
	}
	resetIn := w.resetAt.Sub(now).Milliseconds()
	if w.count >= limit {
		return Decision{Allowed: false, Remaining: 0, ResetInMs: resetIn}, nil
	}
	w.count++
	return Decision{Allowed: true, Remaining: limit - w.count, ResetInMs: resetIn}, nil
}

// RedisCounterStore shares window counters across instances. The check
// and increment run as one Lua script so concurrent requests for the
// same key can never both observe stale room.
type RedisCounterStore struct {
	client *redis.Client
}

var hitScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return {0, tonumber(current), redis.call('PTTL', KEYS[1])}
end
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, count, redis.call('PTTL', KEYS[1])}
`)

func NewRedisCounterStore(addr, password string, db int) *RedisCounterStore {
	return &RedisCounterStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisCounterStore) Hit(key string, limit int, window time.Duration) (Decision, error) {
	res, err := hitScript.Run(context.Background(), s.client,
		[]string{"rl:" + key}, limit, window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, err
	}
	vals := res.([]interface{})
	allowed := vals[0].(int64) == 1
	count := vals[1].(int64)
	resetIn := vals[2].(int64)
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: allowed, Remaining: remaining, ResetInMs: resetIn}, nil
}

func (s *RedisCounterStore) Close() error {
	return s.client.Close()
}

// RateLimit applies per-API-key admission control and exposes the
// X-RateLimit-* headers on every response. Requests without a key fall
// back to per-IP limiting. A counter-store outage admits the request;
// ingestion availability wins over strict limiting.
func RateLimit(limiter *RateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-API-Key")
		if key == "" {
			key = c.IP()
		}

		decision, err := limiter.Check(key)
		if err != nil {
			logrus.WithError(err).Warn("rate limit counter store unavailable, admitting request")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt((decision.ResetInMs+999)/1000, 10))

		if !decision.Allowed {
			logrus.WithFields(logrus.Fields{
				"endpoint":    c.Path(),
				"ip":          c.IP(),
				"reset_in_ms": decision.ResetInMs,
			}).Warn("rate_limit_hit")

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":        false,
				"error":          "Rate limit exceeded. Please wait before retrying.",
				"retry_after_ms": decision.ResetInMs,
			})
		}

		return c.Next()
	}
}
