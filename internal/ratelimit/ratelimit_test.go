package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsLimitPerWindow(t *testing.T) {
	clock := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	l := NewMemory(Policy{Limit: 3, Window: time.Minute})
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow(ctx, "10.0.0.1"))
	assert.True(t, l.Allow(ctx, "10.0.0.2"), "keys are independent")

	// nothing comes back before the window ends
	clock = clock.Add(59 * time.Second)
	assert.False(t, l.Allow(ctx, "10.0.0.1"))

	clock = clock.Add(time.Second)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "10.0.0.1"))
	}
	assert.False(t, l.Allow(ctx, "10.0.0.1"))
}

func TestMemoryLimiterSteadyClientStaysWithinLimit(t *testing.T) {
	clock := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	policy := Policy{Limit: 10, Window: time.Minute}
	l := NewMemory(policy)
	l.now = func() time.Time { return clock }

	var admitted []time.Time
	for i := 0; i < 180; i++ {
		if l.Allow(context.Background(), "10.0.0.1") {
			admitted = append(admitted, clock)
		}
		clock = clock.Add(time.Second)
	}
	require.NotEmpty(t, admitted)
	for i, start := range admitted {
		n := 0
		for _, at := range admitted[i:] {
			if at.Sub(start) < policy.Window {
				n++
			}
		}
		assert.LessOrEqual(t, n, policy.Limit, "window starting %s", start.Format(time.TimeOnly))
	}
}

func TestMemoryLimiterDisabled(t *testing.T) {
	l := NewMemory(Policy{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(context.Background(), "10.0.0.1"))
	}
	assert.Zero(t, l.Len())
}

func TestMemoryLimiterSweepsIdleKeys(t *testing.T) {
	clock := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	l := NewMemory(Policy{Limit: 5, Window: time.Minute})
	l.now = func() time.Time { return clock }

	l.Allow(context.Background(), "a")
	l.Allow(context.Background(), "b")
	assert.Equal(t, 2, l.Len())

	clock = clock.Add(30 * time.Second)
	l.Allow(context.Background(), "c")
	l.mu.Lock()
	l.sweep(clock.Add(45 * time.Second))
	l.mu.Unlock()
	assert.Equal(t, 1, l.Len(), "only the window opened later survives")
}

func TestMiddlewareOnlyLimitsMutatingMethods(t *testing.T) {
	l := NewMemory(Policy{Limit: 1, Window: time.Hour})
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	rejected := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) })
	h := Middleware(l, func(r *http.Request) string { return ClientIP(r, false) }, rejected)(ok)

	do := func(method string) int {
		req := httptest.NewRequest(method, "/api/applications", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPut))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "192.0.2.10", ClientIP(req, false))
	assert.Equal(t, "203.0.113.7", ClientIP(req, true))

	req.RemoteAddr = "not-a-hostport"
	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "not-a-hostport", ClientIP(req, true))
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	var seen error
	l := NewRedis(client, Policy{Limit: 1, Window: time.Minute}, "offerdesk:test", func(err error) { seen = err })
	assert.True(t, l.Allow(context.Background(), "10.0.0.1"))
	assert.True(t, l.Allow(context.Background(), "10.0.0.1"))
	assert.Error(t, seen)
}

func TestRedisLimiterNilClient(t *testing.T) {
	var l *RedisLimiter
	assert.True(t, l.Allow(context.Background(), "x"))
	assert.True(t, NewRedis(nil, Policy{Limit: 1, Window: time.Second}, "", nil).Allow(context.Background(), "x"))
}

func TestRedisLimiterLive(t *testing.T) {
	addr := os.Getenv("OFFERDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("OFFERDESK_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	l := NewRedis(client, Policy{Limit: 2, Window: time.Minute}, "offerdesk:test", nil)
	key := uuid.NewString()
	ctx := context.Background()
	assert.True(t, l.Allow(ctx, key))
	assert.True(t, l.Allow(ctx, key))
	assert.False(t, l.Allow(ctx, key))
}
