package http

import (
	"math"
	"sync"
	"time"
)

// bucket is the token state of one client.
type bucket struct {
	tokens   float64
	refilled time.Time
	seen     time.Time
}

// RateLimiter is a per-client token bucket. Buckets idle for longer than the
// client TTL are dropped by a background sweep until Close is called.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	perSec   float64
	ttl      time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter starts a limiter for the given settings. Callers validate
// the settings; NewServer rejects non-positive values.
func NewRateLimiter(settings RateLimiterSettings) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(settings.Burst),
		perSec:   settings.RequestsPerSecond,
		ttl:      settings.ClientTTL,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	if rl.ttl > 0 {
		go rl.sweep()
	}

	return rl
}

// Allow consumes a token for key when one is available.
func (rl *RateLimiter) Allow(key string) bool {
	allowed, _ := rl.Reserve(key)
	return allowed
}

// Reserve consumes a token for key. When none is available it reports how
// long the client has to wait for the next one.
func (rl *RateLimiter) Reserve(key string) (bool, time.Duration) {
	if key == "" {
		key = "unknown"
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, refilled: now}
		rl.buckets[key] = b
	}
	b.seen = now

	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.perSec)
		b.refilled = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	if rl.perSec <= 0 {
		return false, rl.ttl
	}
	missing := 1 - b.tokens
	return false, time.Duration(missing / rl.perSec * float64(time.Second))
}

// Close stops the background sweep.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.pruneStale()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) pruneStale() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.seen) > rl.ttl {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// retryAfterSeconds rounds wait up to whole seconds, never below one.
func retryAfterSeconds(wait time.Duration) int {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
