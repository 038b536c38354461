package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func limitedRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	return req
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	limiter := NewRateLimiter(newTestRedis(t), RateLimitConfig{
		Limit: PerMinute(100, 10),
	})
	handler := limiter.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_BlocksWhenBurstExhausted(t *testing.T) {
	limiter := NewRateLimiter(newTestRedis(t), RateLimitConfig{
		Limit: PerMinute(1, 2),
	})
	handler := limiter.Handler(okHandler())

	var lastCode int
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest())
		lastCode = rec.Code
		if lastCode == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			return
		}
	}

	t.Fatalf("limit never tripped, last status %d", lastCode)
}

func TestRateLimiter_KeysByClientIP(t *testing.T) {
	limiter := NewRateLimiter(newTestRedis(t), RateLimitConfig{
		Limit: PerMinute(1, 1),
	})
	handler := limiter.Handler(okHandler())

	first := limitedRequest()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same address is now limited.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different address still passes.
	other := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	other.RemoteAddr = "198.51.100.9:40000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_FallsBackWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})

	limiter := NewRateLimiter(client, RateLimitConfig{
		Limit: PerMinute(60, 5),
	})
	handler := limiter.Handler(okHandler())

	// The local token bucket takes over; requests still pass.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_Bypass(t *testing.T) {
	limiter := NewRateLimiter(newTestRedis(t), RateLimitConfig{
		Limit: PerMinute(1, 1),
		BypassFunc: func(r *http.Request) bool {
			return r.URL.Path == "/healthz"
		},
	})
	handler := limiter.Handler(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyByIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	assert.Equal(t, "ratelimit:ip:203.0.113.7", KeyByIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2")
	assert.Equal(t, "ratelimit:ip:10.0.0.2", KeyByIP(req))
}
