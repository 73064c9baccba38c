// Package ratelimit throttles write-heavy endpoints per caller.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/redis/go-redis/v9"
)

// Rule allows Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	Limit      int
	RetryAfter time.Duration
}

// RedisLimiter is a fixed-window counter shared by every replica through redis.
type RedisLimiter struct {
	client redis.Cmdable
	rule   Rule
	prefix string
	now    func() time.Time
	log    *slog.Logger
}

func NewRedisLimiter(client redis.Cmdable, prefix string, rule Rule) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		rule:   rule,
		prefix: prefix,
		now:    time.Now,
		log:    logging.GetLogger("ratelimit"),
	}
}

// Allow counts one request for key. When redis cannot be reached the request
// is allowed; a broken limiter must not take votes down with it.
func (l *RedisLimiter) Allow(ctx context.Context, key string) Decision {
	now := l.now()
	window := now.Truncate(l.rule.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, window.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.WarnContext(ctx, "rate limiter unavailable, failing open", slog.String("key", key), slog.Any("error", err))
		return Decision{Allowed: true, Remaining: l.rule.Limit, Limit: l.rule.Limit}
	}

	count := int(incr.Val())
	if count > l.rule.Limit {
		return Decision{
			Allowed:    false,
			Limit:      l.rule.Limit,
			RetryAfter: window.Add(l.rule.Window).Sub(now),
		}
	}
	return Decision{Allowed: true, Remaining: l.rule.Limit - count, Limit: l.rule.Limit}
}
