package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

var (
	// Redis命令计数器
	commandCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_commands_total",
			Help: "Redis 命令执行总数",
		},
		[]string{"command", "status"},
	)

	// Redis命令执行时间
	commandDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "redis_command_duration_seconds",
			Help:       "Redis 命令执行耗时（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
		},
		[]string{"command"},
	)

	// Redis连接计数器
	connectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_connections_total",
			Help: "Redis 连接创建总数",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(commandCounter, commandDuration, connectionCounter)
}

// Hook 实现了 redis.Hook 接口，为幂等键和限流计数的 Redis 操作收集指标
type Hook struct{}

func NewMetricsHook() *Hook {
	return &Hook{}
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		startTime := time.Now()

		err := next(ctx, cmd)

		commandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(startTime).Seconds())

		status := "success"
		if err != nil && !errors.Is(err, redis.Nil) {
			status = "error"
		}
		commandCounter.WithLabelValues(cmd.Name(), status).Inc()

		return err
	}
}

// ProcessPipelineHook 本服务不走管道，逐条转发给单命令钩子计数
func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		startTime := time.Now()

		err := next(ctx, cmds)

		duration := time.Since(startTime).Seconds()
		for _, cmd := range cmds {
			commandDuration.WithLabelValues(cmd.Name()).Observe(duration)

			status := "success"
			if cmdErr := cmd.Err(); cmdErr != nil && !errors.Is(cmdErr, redis.Nil) {
				status = "error"
			}
			commandCounter.WithLabelValues(cmd.Name(), status).Inc()
		}

		return err
	}
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)

		status := "success"
		if err != nil {
			status = "error"
		}
		connectionCounter.WithLabelValues(status).Inc()

		return conn, err
	}
}

// WithMetrics 为 Redis 客户端添加指标收集
func WithMetrics(client *redis.Client) *redis.Client {
	client.AddHook(NewMetricsHook())
	return client
}
