// Package ratelimit throttles the unauthenticated endpoints per client.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another request from key is allowed right now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

const staleAfter = 5 * time.Minute

// MemoryLimiter is a per-key token bucket holding at most rate tokens and
// refilling all of them every interval.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	interval time.Duration
	now      func() time.Time
	lastScan time.Time
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewMemoryLimiter creates a limiter allowing rate requests per interval.
func NewMemoryLimiter(rate int, interval time.Duration, now func() time.Time) *MemoryLimiter {
	if rate <= 0 {
		rate = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		interval: interval,
		now:      now,
	}
}

// Allow consumes a token for key when one is available.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	v, exists := l.visitors[key]
	if !exists {
		l.visitors[key] = &visitor{tokens: l.rate - 1, lastSeen: now}
		return true, nil
	}

	if periods := int(now.Sub(v.lastSeen) / l.interval); periods > 0 {
		v.tokens += periods * l.rate
		if v.tokens > l.rate {
			v.tokens = l.rate
		}
		v.lastSeen = v.lastSeen.Add(time.Duration(periods) * l.interval)
	}

	if v.tokens <= 0 {
		return false, nil
	}
	v.tokens--
	return true, nil
}

// prune drops visitors idle for longer than staleAfter, or than one
// interval when that is longer, at most once a minute. A visitor is only
// dropped once its bucket would have refilled anyway.
func (l *MemoryLimiter) prune(now time.Time) {
	if now.Sub(l.lastScan) < time.Minute {
		return
	}
	l.lastScan = now
	idle := max(staleAfter, l.interval)
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > idle {
			delete(l.visitors, key)
		}
	}
}

// RedisLimiter is a fixed window counter shared by every server instance
// that points at the same Redis.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	rate   int
	window time.Duration
}

// NewRedisLimiter creates a limiter allowing rate requests per window.
func NewRedisLimiter(client *redis.Client, prefix string, rate int, window time.Duration) *RedisLimiter {
	if rate <= 0 {
		rate = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if prefix == "" {
		prefix = "club:ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix, rate: rate, window: window}
}

// Allow increments the counter of the current window for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := time.Now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis: %w", err)
	}
	return incr.Val() <= int64(l.rate), nil
}
