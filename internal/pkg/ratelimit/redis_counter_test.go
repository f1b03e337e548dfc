//go:build e2e

package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCounterLimiter(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	t.Cleanup(func() {
		client.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis server is not available, skipping")
		return
	}

	limiter := NewRedisCounterLimiter(client)

	t.Run("超过上限后拒绝", func(t *testing.T) {
		key := fmt.Sprintf("test:rate:%d", time.Now().UnixNano())
		const limit = 3
		for i := 0; i < limit; i++ {
			allowed, err := limiter.Allow(ctx, key, limit, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed, "第 %d 次应该放行", i+1)
		}
		allowed, err := limiter.Allow(ctx, key, limit, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		usage, err := limiter.Usage(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(limit+1), usage)
	})

	t.Run("首次自增设置过期时间", func(t *testing.T) {
		key := fmt.Sprintf("test:rate:expire:%d", time.Now().UnixNano())
		_, err := limiter.Allow(ctx, key, 10, time.Minute)
		require.NoError(t, err)

		ttl, err := client.TTL(ctx, key).Result()
		require.NoError(t, err)
		assert.True(t, ttl > 0 && ttl <= time.Minute)
	})

	t.Run("键不存在时用量为零", func(t *testing.T) {
		usage, err := limiter.Usage(ctx, fmt.Sprintf("test:rate:none:%d", time.Now().UnixNano()))
		require.NoError(t, err)
		assert.Equal(t, int64(0), usage)
	})
}
