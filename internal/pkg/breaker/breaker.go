package breaker

import (
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/sony/gobreaker"
)

const (
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

type Config struct {
	// 连续失败多少次后熔断
	FailureThreshold uint32 `yaml:"failureThreshold"`
	// 熔断后多久进入半开状态
	Cooldown time.Duration `yaml:"cooldown"`
}

// New 为一个外部发送客户端创建独立的熔断器
//
// CLOSED 状态下连续失败达到阈值进入 OPEN，OPEN 状态下直接快速失败不外呼，
// 冷却结束后进入 HALF_OPEN 放行一次试探请求。
func New(name string, cfg Config) *gobreaker.CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	logger := elog.DefaultLogger
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("熔断器状态变更",
				elog.String("name", name),
				elog.String("from", from.String()),
				elog.String("to", to.String()))
		},
	})
}
