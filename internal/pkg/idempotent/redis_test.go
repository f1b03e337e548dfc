//go:build e2e

package idempotent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisIdempotencyService(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	t.Cleanup(func() {
		client.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis server is not available, skipping")
		return
	}

	svc := NewRedisIdempotencyService(client)
	key := fmt.Sprintf("test-event-%d", time.Now().UnixNano())

	exists, err := svc.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, svc.MarkProcessed(ctx, key))

	exists, err = svc.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	// 重复标记不报错
	require.NoError(t, svc.MarkProcessed(ctx, key))

	ttl, err := client.TTL(ctx, defaultKeyPrefix+key).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 23*time.Hour)
}
