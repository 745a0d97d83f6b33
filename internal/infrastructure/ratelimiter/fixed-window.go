package ratelimiter

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// FixedWindowRateLimiter admits at most limit requests per source in each
// aligned window.
type FixedWindowRateLimiter struct {
	counts          sync.Map // string -> *clientData
	limit           int64
	window          time.Duration
	sourceHeaderKey string
	now             func() time.Time
	cleanupTick     *time.Ticker
	done            chan struct{}
	once            sync.Once
}

type clientData struct {
	count   int64        // atomic
	resetAt atomic.Value // stores time.Time
	mu      sync.Mutex   // only for reset (rare)
}

func NewFixedWindowRateLimiter(limit int, window time.Duration, sourceHeaderKey string) *FixedWindowRateLimiter {
	if window <= 0 {
		window = time.Second
	}

	rl := &FixedWindowRateLimiter{
		limit:           int64(limit),
		window:          window,
		sourceHeaderKey: sourceHeaderKey,
		now:             time.Now,
		cleanupTick:     time.NewTicker(window),
		done:            make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) Allow(sourceKey string) (bool, time.Duration) {
	now := rl.now()
	nextReset := now.Truncate(rl.window).Add(rl.window)

	val, _ := rl.counts.LoadOrStore(sourceKey, &clientData{})
	data := val.(*clientData)

	if reset, ok := data.resetAt.Load().(time.Time); ok && now.Before(reset) {
		return rl.take(data, now, reset)
	}

	data.mu.Lock()
	defer data.mu.Unlock()

	// Another caller may have opened the window while we waited.
	if reset, ok := data.resetAt.Load().(time.Time); ok && now.Before(reset) {
		return rl.take(data, now, reset)
	}

	if rl.limit <= 0 {
		return false, nextReset.Sub(now)
	}
	atomic.StoreInt64(&data.count, 1)
	data.resetAt.Store(nextReset)
	return true, 0
}

func (rl *FixedWindowRateLimiter) take(data *clientData, now, reset time.Time) (bool, time.Duration) {
	if atomic.AddInt64(&data.count, 1) > rl.limit {
		atomic.AddInt64(&data.count, -1)
		return false, reset.Sub(now)
	}
	return true, 0
}

func (rl *FixedWindowRateLimiter) GetSourceKey(r *http.Request) string {
	return sourceKey(r, rl.sourceHeaderKey)
}

func (rl *FixedWindowRateLimiter) startCleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) cleanup() {
	now := rl.now()
	rl.counts.Range(func(key, value any) bool {
		data := value.(*clientData)
		if resetAt, ok := data.resetAt.Load().(time.Time); ok && !now.Before(resetAt) {
			rl.counts.Delete(key)
		}
		return true
	})
}

func (rl *FixedWindowRateLimiter) Close() {
	rl.once.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}
