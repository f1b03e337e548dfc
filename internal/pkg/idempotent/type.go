package idempotent

import "context"

// IdempotencyService 幂等服务
//
// Exists 与 MarkProcessed 之间没有原子性保证：同一个 key 的两次并发首投
// 可能都通过 Exists 检查。这个重复窗口是已知并被接受的，上游靠 broker
// 的重投语义兜底，宁可重复也不丢投递。
type IdempotencyService interface {
	// Exists 检查 key 是否已处理过
	Exists(ctx context.Context, key string) (bool, error)
	// MarkProcessed 标记 key 已处理，带过期时间
	MarkProcessed(ctx context.Context, key string) error
}
