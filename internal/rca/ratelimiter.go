// Package rca implements the background Root-Cause-Analysis pipeline:
// webhook-triggered investigations that reuse the interactive tool
// engine without a live socket, followed by citation-anchored
// summarisation, severity classification, and a stale-session sweep.
package rca

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Arvo-AI/aurora/internal/ratelimit"
)

// RateLimiter caps how many background investigations a principal may
// start in a rolling window. Allow returns false once the window's
// budget is exhausted; it never blocks.
type RateLimiter interface {
	Allow(ctx context.Context, principal string) (bool, error)
}

const (
	backgroundChatWindow      = 5 * time.Minute
	backgroundChatMaxRequests = 5
)

// redisCounter is the narrow slice of *redis.Client this package
// exercises, so the limiter can be driven by a fake in tests without
// standing up a real Redis server.
type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
}

// RedisRateLimiter implements RateLimiter with a fixed-window counter
// kept in Redis: INCR the per-principal key, set its expiry on the
// first hit in the window, reject once the count exceeds the budget.
// This mirrors the original alert-flood guard exactly (a token-bucket
// would smooth bursts the original deliberately doesn't smooth).
type RedisRateLimiter struct {
	client redisCounter
	window time.Duration
	max    int64
}

// NewRedisRateLimiter constructs a RateLimiter backed by client, using
// the same 5-requests-per-5-minutes budget as the original background
// chat flood guard.
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, window: backgroundChatWindow, max: backgroundChatMaxRequests}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, principal string) (bool, error) {
	key := fmt.Sprintf("background_chat_rate_limit:%s", principal)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rca: redis incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("rca: redis expire: %w", err)
		}
	}
	return count <= r.max, nil
}

// InMemoryRateLimiter adapts the teacher's in-process token bucket
// limiter to the RateLimiter port, for deployments without Redis and
// for tests. It approximates rather than reproduces the fixed-window
// counter above: a token bucket smooths bursts instead of hard-cutting
// a window, which is an acceptable relaxation for the fallback path.
type InMemoryRateLimiter struct {
	limiter *ratelimit.Limiter
}

// NewInMemoryRateLimiter builds the fallback limiter with a budget
// equivalent to backgroundChatMaxRequests per backgroundChatWindow.
func NewInMemoryRateLimiter() *InMemoryRateLimiter {
	cfg := ratelimit.Config{
		RequestsPerSecond: float64(backgroundChatMaxRequests) / backgroundChatWindow.Seconds(),
		BurstSize:         backgroundChatMaxRequests,
		Enabled:           true,
	}
	return &InMemoryRateLimiter{limiter: ratelimit.NewLimiter(cfg)}
}

func (r *InMemoryRateLimiter) Allow(ctx context.Context, principal string) (bool, error) {
	return r.limiter.Allow(principal), nil
}
