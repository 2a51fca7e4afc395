package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiter_Burst(t *testing.T) {
	l := NewLocalLimiter(time.Hour, 2)
	ctx := context.Background()

	ok, _, _ := l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _, _ = l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, retry, err := l.Allow(ctx, "a")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys are limited independently")
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (s stubLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return s.allowed, 1500 * time.Millisecond, s.err
}

func runLimited(l Limiter) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := RateLimit(l)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	return rec, err
}

func TestRateLimit_Blocks(t *testing.T) {
	rec, err := runLimited(stubLimiter{allowed: false})

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	rec, err := runLimited(stubLimiter{err: errors.New("redis down")})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func newTestRedisLimiter(t *testing.T, every time.Duration, burst int) (*RedisLimiter, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	now := time.UnixMilli(1_700_000_000_000)
	l := NewRedisLimiter(rdb, every, burst)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestRedisLimiter_BurstRetryAndRefill(t *testing.T) {
	l, now := newTestRedisLimiter(t, time.Second, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok, "call %d is within the burst", i)
	}

	ok, retry, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Second, retry)

	*now = now.Add(400 * time.Millisecond)
	ok, retry, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 600*time.Millisecond, retry)

	ok, _, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok, "keys are limited independently")

	*now = now.Add(600 * time.Millisecond)
	ok, _, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok, "one token refills after the interval")

	ok, _, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLimiter_RefillCapsAtBurst(t *testing.T) {
	l, now := newTestRedisLimiter(t, time.Second, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
	}

	*now = now.Add(time.Minute)
	var allowed int
	for i := 0; i < 5; i++ {
		ok, _, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

func TestRedisLimiter_ThroughMiddleware(t *testing.T) {
	l, _ := newTestRedisLimiter(t, time.Second, 1)

	rec, err := runLimited(l)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, err = runLimited(l)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func loginFrom(e *echo.Echo, mw echo.MiddlewareFunc, remoteAddr, forwardedFor string) error {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
	c := e.NewContext(req, httptest.NewRecorder())
	return mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
}

func TestRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	e := echo.New()
	e.IPExtractor = ClientIPExtractor(false)
	mw := RateLimit(NewLocalLimiter(time.Hour, 1))

	require.NoError(t, loginFrom(e, mw, "203.0.113.7:40000", "198.51.100.1"))

	err := loginFrom(e, mw, "203.0.113.7:40001", "198.51.100.2")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "a new X-Forwarded-For must not open a new bucket")
	assert.Equal(t, http.StatusTooManyRequests, he.Code)
}

func TestRateLimit_TrustedProxyUsesForwardedFor(t *testing.T) {
	e := echo.New()
	e.IPExtractor = ClientIPExtractor(true)
	mw := RateLimit(NewLocalLimiter(time.Hour, 1))

	require.NoError(t, loginFrom(e, mw, "10.0.0.5:40000", "198.51.100.1"))
	require.NoError(t, loginFrom(e, mw, "10.0.0.5:40001", "198.51.100.2"))

	err := loginFrom(e, mw, "10.0.0.5:40002", "198.51.100.1")
	assert.Error(t, err)
}
