package dispatcher

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/khetisetu/notification-event-service/internal/domain"
)

// MetricsDispatcher 为分发器添加指标收集的装饰器
type MetricsDispatcher struct {
	dispatcher              Dispatcher
	dispatchDurationSummary *prometheus.SummaryVec
	dispatchCounter         *prometheus.CounterVec
	outcomeCounter          *prometheus.CounterVec
}

// NewMetricsDispatcher 创建一个新的带有指标收集的分发器
func NewMetricsDispatcher(d Dispatcher) *MetricsDispatcher {
	dispatchDurationSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "notification_dispatch_duration_seconds",
			Help:       "通知分发耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"channel", "outcome"},
	)

	dispatchCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_total",
			Help: "通知分发总数",
		},
		[]string{"channel"},
	)

	outcomeCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_outcome_total",
			Help: "通知分发结论统计",
		},
		[]string{"channel", "outcome"},
	)

	prometheus.MustRegister(dispatchDurationSummary, dispatchCounter, outcomeCounter)

	return &MetricsDispatcher{
		dispatcher:              d,
		dispatchDurationSummary: dispatchDurationSummary,
		dispatchCounter:         dispatchCounter,
		outcomeCounter:          outcomeCounter,
	}
}

func (m *MetricsDispatcher) Dispatch(ctx context.Context, req domain.DeliveryRequest) (Result, error) {
	startTime := time.Now()

	m.dispatchCounter.WithLabelValues(string(req.Channel)).Inc()

	result, err := m.dispatcher.Dispatch(ctx, req)

	duration := time.Since(startTime).Seconds()

	outcome := string(result.Outcome)
	if outcome == "" {
		outcome = string(OutcomeFailed)
	}
	m.outcomeCounter.WithLabelValues(string(req.Channel), outcome).Inc()
	m.dispatchDurationSummary.WithLabelValues(string(req.Channel), outcome).Observe(duration)

	return result, err
}
