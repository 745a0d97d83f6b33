package ratelimiter

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allowed(l Limiter, key string) bool {
	ok, _ := l.Allow(key)
	return ok
}

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := New(Options{RequestsPerSecond: 1, Burst: 2, TTL: time.Minute})
	defer rl.Close()

	fixed := time.Now()
	rl.now = func() time.Time { return fixed }

	assert.True(t, allowed(rl, "10.0.0.1"))
	assert.True(t, allowed(rl, "10.0.0.1"))

	ok, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, time.Second, retry, float64(10*time.Millisecond))

	// other sources have their own bucket
	assert.True(t, allowed(rl, "10.0.0.2"))

	fixed = fixed.Add(time.Second)
	assert.True(t, allowed(rl, "10.0.0.1"))
}

func TestRateLimiter_ZeroBurstDeniesEverything(t *testing.T) {
	rl := New(Options{RequestsPerSecond: 10, Burst: 0})
	defer rl.Close()

	ok, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Zero(t, retry)
}

func TestRateLimiter_CleanupEvictsIdleSources(t *testing.T) {
	rl := New(Options{RequestsPerSecond: 1, Burst: 1, TTL: time.Minute})
	defer rl.Close()

	fixed := time.Now()
	rl.now = func() time.Time { return fixed }
	rl.Allow("a")

	fixed = fixed.Add(2 * time.Minute)
	rl.Allow("b")
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.clients, "a")
	assert.Contains(t, rl.clients, "b")
}

func TestRateLimiter_GetSourceKey(t *testing.T) {
	rl := New(Options{SourceHeaderKey: "X-Forwarded-For"})
	defer rl.Close()

	r := httptest.NewRequest("GET", "/api/v1/itinerary", nil)
	r.RemoteAddr = "192.0.2.1:4321"
	assert.Equal(t, "192.0.2.1", rl.GetSourceKey(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", rl.GetSourceKey(r))
}

func TestFixedWindow_LimitPerWindow(t *testing.T) {
	rl := NewFixedWindowRateLimiter(2, time.Minute, "")
	defer rl.Close()

	start := time.Date(2024, 1, 1, 12, 0, 15, 0, time.UTC)
	now := start
	rl.now = func() time.Time { return now }

	assert.True(t, allowed(rl, "a"))
	assert.True(t, allowed(rl, "a"))

	ok, retry := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 45*time.Second, retry)

	assert.True(t, allowed(rl, "b"))

	now = start.Add(45 * time.Second)
	assert.True(t, allowed(rl, "a"))
}

func TestFixedWindow_ConcurrentCallersShareTheLimit(t *testing.T) {
	rl := NewFixedWindowRateLimiter(10, time.Hour, "")
	defer rl.Close()

	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed(rl, "a") {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
}

func TestFixedWindow_CleanupDropsExpiredWindows(t *testing.T) {
	rl := NewFixedWindowRateLimiter(1, time.Minute, "")
	defer rl.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("a")

	now = now.Add(time.Minute)
	rl.cleanup()

	_, found := rl.counts.Load("a")
	assert.False(t, found)
}

func TestNewLimiter(t *testing.T) {
	tb, err := NewLimiter(Options{RequestsPerSecond: 1, Burst: 1})
	require.NoError(t, err)
	defer tb.Close()
	assert.IsType(t, &RateLimiter{}, tb)

	fw, err := NewLimiter(Options{Strategy: StrategyFixedWindow, Burst: 1, Window: time.Second})
	require.NoError(t, err)
	defer fw.Close()
	assert.IsType(t, &FixedWindowRateLimiter{}, fw)

	_, err = NewLimiter(Options{Strategy: "leaky_bucket"})
	assert.ErrorContains(t, err, "leaky_bucket")
}
