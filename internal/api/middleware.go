package api

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fathima-sithara/vietshare/internal/metrics"
)

type TokenValidator interface {
	Validate(token string) (string, error)
}

// Auth requires a bearer token and stores its user id in Locals("user_id").
func Auth(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if h == "" {
			return JSONError(c, fiber.StatusUnauthorized, "missing authorization")
		}
		if !strings.HasPrefix(h, "Bearer ") {
			return JSONError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}
		uid, err := tokens.Validate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return JSONError(c, fiber.StatusUnauthorized, "invalid or expired token")
		}
		c.Locals("user_id", uid)
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals("user_id").(string)
	return uid
}

type IPRateLimiter struct {
	visitors sync.Map
	rps      rate.Limit
	burst    int
	log      *zap.SugaredLogger
}

type visitor struct {
	limiter *rate.Limiter
	// lastSeen is a unix nano timestamp.
	lastSeen atomic.Int64
}

func NewIPRateLimiter(perMinute, burst int, log *zap.SugaredLogger) *IPRateLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &IPRateLimiter{
		rps:   rate.Limit(float64(perMinute) / 60.0),
		burst: burst,
		log:   log,
	}
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	now := time.Now()
	if v, ok := l.visitors.Load(ip); ok {
		vi := v.(*visitor)
		vi.lastSeen.Store(now.UnixNano())
		return vi.limiter
	}
	vi := &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
	vi.lastSeen.Store(now.UnixNano())
	actual, _ := l.visitors.LoadOrStore(ip, vi)
	return actual.(*visitor).limiter
}

// Cleanup forgets visitors idle for more than five minutes until ctx ends.
func (l *IPRateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-5 * time.Minute).UnixNano()
			l.visitors.Range(func(k, v interface{}) bool {
				if v.(*visitor).lastSeen.Load() < cutoff {
					l.visitors.Delete(k)
				}
				return true
			})
		}
	}
}

func (l *IPRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := clientIP(c)
		if !l.getLimiter(ip).Allow() {
			l.log.Warnw("rate limit exceeded", "ip", ip, "path", c.Path())
			return JSONError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}

func clientIP(c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}

// WriteLimiter caps mutating requests per user in a fixed Redis window, so
// the limit holds across instances.
type WriteLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
	log    *zap.SugaredLogger
}

func NewWriteLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration, log *zap.SugaredLogger) *WriteLimiter {
	return &WriteLimiter{rdb: rdb, prefix: prefix, limit: int64(limit), window: window, log: log}
}

// writeWindow increments the counter and gives it a TTL whenever it has
// none, so a counter never outlives its window.
var writeWindow = redis.NewScript(`
local current = redis.call("incr", KEYS[1])
if redis.call("pttl", KEYS[1]) < 0 then
  redis.call("pexpire", KEYS[1], ARGV[1])
end
return current
`)

func (l *WriteLimiter) hit(ctx context.Context, key string) (int64, error) {
	return writeWindow.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Int64()
}

func (l *WriteLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}
		key := fmt.Sprintf("%s:writes:%s", l.prefix, userID(c))
		count, err := l.hit(c.UserContext(), key)
		if err != nil {
			// fail open
			l.log.Warnw("write limiter unavailable", "error", err)
			return c.Next()
		}
		if count > l.limit {
			return JSONError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}

// Metrics counts requests by route template.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = StatusOf(err)
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		route := c.Route().Path
		metrics.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
