package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/iliyamo/suite-exchange/internal/config"
)

var limiterScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// decision is the outcome of one bucket take.
type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// localBuckets is the in-process fallback used when Redis is absent or
// failing.  Idle buckets are evicted after the configured TTL.
type localBuckets struct {
	cfg     config.RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*localBucket
	swept   time.Time
}

type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLocalBuckets(cfg config.RateLimitConfig) *localBuckets {
	return &localBuckets{cfg: cfg, buckets: map[string]*localBucket{}, swept: time.Now()}
}

func (l *localBuckets) take(key string, now time.Time) decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.swept) > l.cfg.TTL {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.cfg.TTL {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(rate.Limit(l.cfg.PerSecond()), l.cfg.Capacity)}
		l.buckets[key] = b
	}
	b.seen = now
	r := b.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return decision{retry: delay}
	}
	return decision{allowed: true, remaining: int64(b.lim.TokensAt(now))}
}

// NewTokenBucket limits requests per key.  With a Redis client the bucket
// is shared across instances via a Lua script; without one, or when a
// script call fails, each instance enforces the same limits locally.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	local := newLocalBuckets(cfg)

	take := func(c echo.Context, key string, now time.Time) decision {
		if rdb == nil {
			return local.take(key, now)
		}
		args := []interface{}{
			now.UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			int64(cfg.TTL / time.Second),
		}
		vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
		if err != nil {
			if cfg.Debug {
				logger.Warn("rate limit redis error, using local bucket", "key", key, "err", err)
			}
			return local.take(key, now)
		}
		arr, ok := vals.([]interface{})
		if !ok || len(arr) != 3 {
			logger.Warn("unexpected rate limit script result", "key", key, "result", fmt.Sprintf("%#v", vals))
			return local.take(key, now)
		}
		return decision{
			allowed:   asInt64(arr[0]) == 1,
			remaining: asInt64(arr[1]),
			retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			d := take(c, key, time.Now())

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !d.allowed {
				secs := int(math.Ceil(d.retry.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					logger.Info("rate limit block", "key", key, "retry", d.retry)
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "TOO_MANY_REQUESTS",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userID(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
