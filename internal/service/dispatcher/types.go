package dispatcher

import (
	"context"

	"github.com/khetisetu/notification-event-service/internal/domain"
)

// Outcome 一次分发的终态结论
type Outcome string

const (
	// OutcomeDuplicate 幂等键已处理过，整条流水线跳过
	OutcomeDuplicate Outcome = "DUPLICATE"
	// OutcomeRateLimited 触发限流，落 SKIPPED 记录后跳过
	OutcomeRateLimited Outcome = "RATE_LIMITED"
	// OutcomeSent 供应商确认发送成功
	OutcomeSent Outcome = "SENT"
	// OutcomeFailed 发送失败，记录已标记 FAILED
	OutcomeFailed Outcome = "FAILED"
)

// Result 分发结果
//
// Outcome 为 DUPLICATE 时没有投递记录，Notification 为零值。
type Result struct {
	Outcome      Outcome
	Notification domain.Notification
}

// Dispatcher 投递分发器，消费端的唯一入口
//
// 返回错误表示本次分发没有得到终态结论、调用方可以重试；
// DUPLICATE 和 RATE_LIMITED 都是正常结论，err 为 nil。
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.DeliveryRequest) (Result, error)
}
