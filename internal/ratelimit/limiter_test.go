package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, rule Rule) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "test", rule)
	fixed := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	return l, mr
}

func TestRedisLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	l, mr := newLimiter(t, Rule{Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		d := l.Allow(ctx, "user:1")
		require.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	denied := l.Allow(ctx, "user:1")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 50*time.Second, denied.RetryAfter)

	other := l.Allow(ctx, "user:2")
	assert.True(t, other.Allowed, "keys are counted separately")

	key := "test:user:1:" + "1704067200"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestRedisLimiter_NextWindowResets(t *testing.T) {
	ctx := context.Background()
	l, _ := newLimiter(t, Rule{Limit: 1, Window: time.Minute})

	assert.True(t, l.Allow(ctx, "k").Allowed)
	assert.False(t, l.Allow(ctx, "k").Allowed)

	later := l.now().Add(time.Minute)
	l.now = func() time.Time { return later }
	assert.True(t, l.Allow(ctx, "k").Allowed)
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	l, mr := newLimiter(t, Rule{Limit: 1, Window: time.Minute})
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(context.Background(), "k").Allowed)
	}
}
