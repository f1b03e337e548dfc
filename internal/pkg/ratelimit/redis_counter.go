package ratelimit

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/redis/go-redis/v9"
)

var (
	//go:embed lua/incr_window.lua
	incrWindowScript string

	_ Limiter = (*RedisCounterLimiter)(nil)
)

// RedisCounterLimiter 基于Redis的固定窗口计数限流器
//
// 自增与首次过期设置在同一个Lua脚本内完成，单次往返且无竞态。
type RedisCounterLimiter struct {
	cmd    redis.Cmdable
	logger *elog.Component
}

func NewRedisCounterLimiter(cmd redis.Cmdable) *RedisCounterLimiter {
	return &RedisCounterLimiter{
		cmd:    cmd,
		logger: elog.DefaultLogger,
	}
}

// Allow 判断 key 在窗口内是否还有配额
//
// Redis 故障时放行并记录日志（fail-open）：配额是防滥用手段而非强一致约束，
// 可用性优先于严格限额。
func (r *RedisCounterLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	allowed, err := r.cmd.Eval(ctx, incrWindowScript,
		[]string{key},
		window.Milliseconds(),
		limit,
	).Bool()
	if err != nil {
		r.logger.Warn("限流计数失败，降级放行",
			elog.FieldErr(err),
			elog.String("key", key))
		return true, nil
	}
	return allowed, nil
}

// Usage 返回 key 当前计数
func (r *RedisCounterLimiter) Usage(ctx context.Context, key string) (int64, error) {
	val, err := r.cmd.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return val, nil
}
