package ratelimit

import (
	"context"
	"time"
)

// Limiter 计数式限流器
type Limiter interface {
	// Allow 在 window 窗口内对 key 原子加一，计数超过 limit 时返回 false
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// Usage 返回 key 当前计数，键不存在时为 0
	Usage(ctx context.Context, key string) (int64, error)
}
