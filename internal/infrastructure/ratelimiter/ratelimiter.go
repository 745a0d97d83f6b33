package ratelimiter

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	StrategyTokenBucket = "token_bucket"
	StrategyFixedWindow = "fixed_window"
)

type Limiter interface {
	// Allow reports whether sourceKey may proceed and, when it may not, how
	// long until it can retry.
	Allow(sourceKey string) (bool, time.Duration)
	GetSourceKey(r *http.Request) string
	Close()
}

type Options struct {
	Strategy          string
	RequestsPerSecond float64
	Burst             int
	Window            time.Duration
	TTL               time.Duration
	SourceHeaderKey   string
}

// NewLimiter builds the limiter named by opts.Strategy. An empty strategy
// selects the token bucket.
func NewLimiter(opts Options) (Limiter, error) {
	switch opts.Strategy {
	case "", StrategyTokenBucket:
		return New(opts), nil
	case StrategyFixedWindow:
		return NewFixedWindowRateLimiter(opts.Burst, opts.Window, opts.SourceHeaderKey), nil
	}
	return nil, fmt.Errorf("unsupported rate limiter strategy %q", opts.Strategy)
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per source. Sources idle for longer
// than TTL are evicted by a background sweep.
type RateLimiter struct {
	opts    Options
	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func New(opts Options) *RateLimiter {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}

	rl := &RateLimiter{
		opts:    opts,
		clients: make(map[string]*client),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *RateLimiter) Allow(sourceKey string) (bool, time.Duration) {
	rl.mu.Lock()
	c, ok := rl.clients[sourceKey]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.opts.RequestsPerSecond), rl.opts.Burst)}
		rl.clients[sourceKey] = c
	}
	now := rl.now()
	c.lastSeen = now
	rl.mu.Unlock()

	res := c.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, 0
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) GetSourceKey(r *http.Request) string {
	return sourceKey(r, rl.opts.SourceHeaderKey)
}

func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(rl.opts.TTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.opts.TTL)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

// sourceKey identifies the caller by the configured header, falling back to
// the remote address without port.
func sourceKey(r *http.Request, headerKey string) string {
	if headerKey != "" {
		if v := r.Header.Get(headerKey); v != "" {
			return strings.TrimSpace(strings.Split(v, ",")[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
