package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter. Allow atomically checks the
// current count for key and increments it only while below limit, so a
// saturated window never grows its counter unboundedly.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

var (
	defaultLimiter Limiter
	defaultMu      sync.RWMutex
)

// SetDefault installs the process-wide limiter (chosen at startup).
func SetDefault(l Limiter) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLimiter = l
}

// Default returns the process-wide limiter, falling back to an in-memory
// limiter when none was installed (tests, cache-less deployments).
func Default() Limiter {
	defaultMu.RLock()
	l := defaultLimiter
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLimiter == nil {
		defaultLimiter = NewMemoryLimiter()
	}
	return defaultLimiter
}

// allowScript reads the counter and increments only below the limit, setting
// the window expiry when the counter is created. Runs server-side so two
// concurrent requests cannot both observe limit-1.
var allowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return 0
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// RedisLimiter counts in Redis so limits hold across processes.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	seconds := int(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	res, err := allowScript.Run(ctx, l.client, []string{"ratelimit:" + key}, limit, seconds).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

type bucket struct {
	windowStart time.Time
	count       int
}

// MemoryLimiter is a per-process fixed-window limiter used when no Redis is
// configured and in tests.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Drop stale buckets so abandoned keys do not accumulate.
	for k, b := range l.buckets {
		if now.Sub(b.windowStart) > 10*window {
			delete(l.buckets, k)
		}
	}

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) >= window {
		l.buckets[key] = &bucket{windowStart: now, count: 1}
		return true, nil
	}

	if b.count >= limit {
		return false, nil
	}

	b.count++
	return true, nil
}
