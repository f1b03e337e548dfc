package idempotent

import (
	"context"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "idempotency:notif:"
	defaultTTL       = 24 * time.Hour
)

var _ IdempotencyService = (*RedisIdempotencyService)(nil)

// RedisIdempotencyService 基于Redis的幂等服务实现
type RedisIdempotencyService struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
	logger    *elog.Component
}

func NewRedisIdempotencyService(client redis.Cmdable) *RedisIdempotencyService {
	return &RedisIdempotencyService{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       defaultTTL,
		logger:    elog.DefaultLogger,
	}
}

// Exists 检查幂等标记是否存在
//
// Redis 不可用时按未处理对待（fail-open）：此时允许重复投递，
// 但不会因为存储故障丢掉投递。
func (s *RedisIdempotencyService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		s.logger.Warn("查询幂等标记失败，降级为未处理",
			elog.FieldErr(err),
			elog.String("key", key))
		return false, nil
	}
	return n > 0, nil
}

// MarkProcessed 写入幂等标记
//
// 使用 SET NX 原子写入，24小时后过期。
func (s *RedisIdempotencyService) MarkProcessed(ctx context.Context, key string) error {
	if err := s.client.SetNX(ctx, s.key(key), "1", s.ttl).Err(); err != nil {
		return errors.Wrap(err, "写入幂等标记失败")
	}
	return nil
}

func (s *RedisIdempotencyService) key(key string) string {
	return fmt.Sprintf("%s%s", s.keyPrefix, key)
}
