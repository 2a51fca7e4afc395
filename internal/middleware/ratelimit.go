package middleware

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/studyroom/seat-tracker/internal/dto"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key is allowed right now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RateLimit keys requests by client IP and route. Limiter errors let the
// request through.
func RateLimit(l Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP() + ":" + c.Request().Method + " " + c.Path()
			allowed, retry, err := l.Allow(c.Request().Context(), key)
			if err != nil {
				log.Printf("[RateLimit] limiter error for %s: %v", key, err)
				return next(c)
			}
			if !allowed {
				secs := int(math.Ceil(retry.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return echo.NewHTTPError(http.StatusTooManyRequests, dto.Result{Code: "TOO_MANY_REQUESTS", Message: "요청이 너무 많습니다. 잠시 후 다시 시도하세요."})
			}
			return next(c)
		}
	}
}

// ClientIPExtractor decides what c.RealIP reports to RateLimit. Unless a
// trusted proxy sets X-Forwarded-For, the peer address is used so clients
// cannot pick their own bucket.
func ClientIPExtractor(trustProxy bool) echo.IPExtractor {
	if trustProxy {
		return echo.ExtractIPFromXFFHeader()
	}
	return echo.ExtractIPDirect()
}

// LocalLimiter is an in-process token bucket per key.
type LocalLimiter struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(every time.Duration, burst int) *LocalLimiter {
	return &LocalLimiter{every: every, burst: burst, visitors: make(map[string]*visitor)}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.evictLocked(now)

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// evictLocked drops keys idle long enough to have refilled completely.
func (l *LocalLimiter) evictLocked(now time.Time) {
	idle := l.every * time.Duration(l.burst) * 2
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > idle {
			delete(l.visitors, key)
		}
	}
}

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
if intervals > 0 then
  tokens = math.min(capacity, tokens + intervals)
  last_refill = last_refill + intervals * interval_ms
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('PEXPIRE', key, interval_ms * capacity * 2)
return { allowed, retry_ms }
`)

// RedisLimiter shares one token bucket per key across every instance.
type RedisLimiter struct {
	rdb    *redis.Client
	every  time.Duration
	burst  int
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, every time.Duration, burst int) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, every: every, burst: burst, prefix: "seat-tracker:rl:", now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	vals, err := tokenBucketScript.Run(ctx, l.rdb, []string{l.prefix + key},
		l.now().UnixMilli(), l.burst, l.every.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(vals) != 2 {
		return false, 0, fmt.Errorf("unexpected token bucket result %v", vals)
	}
	return vals[0] == 1, time.Duration(vals[1]) * time.Millisecond, nil
}

// NewRedisClient pings addr and returns nil when Redis is unreachable so
// callers can fall back to the local limiter.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[RateLimit] redis at %s unreachable, using local limiter: %v", addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
