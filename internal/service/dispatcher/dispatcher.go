package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/event/analytics"
	"github.com/khetisetu/notification-event-service/internal/pkg/idempotent"
	"github.com/khetisetu/notification-event-service/internal/pkg/ratelimit"
	"github.com/khetisetu/notification-event-service/internal/repository"
	"github.com/khetisetu/notification-event-service/internal/service/provider"
)

const (
	defaultRecipientLimit  = 5
	defaultRecipientWindow = time.Minute
	// 全局窗口比一天多一小时，保证当天计数活到跨天之后
	defaultGlobalWindow = 25 * time.Hour

	statusSent        = "SENT"
	statusFailed      = "FAILED"
	statusRateLimited = "RATE_LIMITED"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// RecipientLimit 单个收件人在窗口内同渠道的最大条数
	RecipientLimit int `yaml:"recipientLimit"`
	// RecipientWindow 收件人窗口
	RecipientWindow time.Duration `yaml:"recipientWindow"`
	// GlobalDailyLimits 渠道级每日上限，渠道缺省时不限
	GlobalDailyLimits map[string]int `yaml:"globalDailyLimits"`
}

func (c RateLimitConfig) recipientLimit() int {
	if c.RecipientLimit <= 0 {
		return defaultRecipientLimit
	}
	return c.RecipientLimit
}

func (c RateLimitConfig) recipientWindow() time.Duration {
	if c.RecipientWindow <= 0 {
		return defaultRecipientWindow
	}
	return c.RecipientWindow
}

var _ Dispatcher = (*dispatcher)(nil)

// dispatcher 串起幂等、限流、落库、供应商外呼和状态回写的完整链路
type dispatcher struct {
	idempotentSvc idempotent.IdempotencyService
	limiter       ratelimit.Limiter
	repo          repository.NotificationRepository
	registry      *provider.Registry
	analyticsProd analytics.Producer
	limitCfg      RateLimitConfig
	logger        *elog.Component
}

func NewDispatcher(
	idempotentSvc idempotent.IdempotencyService,
	limiter ratelimit.Limiter,
	repo repository.NotificationRepository,
	registry *provider.Registry,
	analyticsProd analytics.Producer,
	limitCfg RateLimitConfig,
) Dispatcher {
	return &dispatcher{
		idempotentSvc: idempotentSvc,
		limiter:       limiter,
		repo:          repo,
		registry:      registry,
		analyticsProd: analyticsProd,
		limitCfg:      limitCfg,
		logger:        elog.DefaultLogger,
	}
}

func (d *dispatcher) Dispatch(ctx context.Context, req domain.DeliveryRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	// 幂等检查在任何副作用之前
	exists, err := d.idempotentSvc.Exists(ctx, req.EventID)
	if err != nil {
		return Result{}, err
	}
	if exists {
		d.logger.Info("重复事件，跳过",
			elog.String("eventID", req.EventID),
			elog.String("traceID", req.TraceID()))
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	allowed, reason := d.allow(ctx, req)
	if !allowed {
		return d.skip(ctx, req, reason)
	}

	// 外呼之前先落 PENDING，保证每次实际尝试都有记录可查
	notification, err := d.repo.Create(ctx, domain.Notification{
		EventID:      req.EventID,
		UserID:       req.UserID,
		Channel:      req.Channel,
		Recipient:    req.Recipient,
		TemplateName: req.TemplateName,
		Status:       domain.SendStatusPending,
		Metadata:     req.Metadata,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", errs.ErrCreateNotificationFailed, err)
	}

	p, err := d.registry.Resolve(req.Channel)
	if err != nil {
		return d.fail(ctx, req, notification, err)
	}

	if err := p.Send(ctx, req); err != nil {
		return d.fail(ctx, req, notification, err)
	}

	if err := d.repo.MarkSent(ctx, notification.ID); err != nil {
		// 通知已经发出去了，状态回写失败只告警，不触发重投
		d.logger.Error("回写发送成功状态失败",
			elog.FieldErr(err),
			elog.String("eventID", req.EventID))
	}
	notification.Status = domain.SendStatusSent

	// 成功之后才标记幂等键，中途失败的事件重投时不会被挡住
	if err := d.idempotentSvc.MarkProcessed(ctx, req.EventID); err != nil {
		d.logger.Warn("标记幂等键失败",
			elog.FieldErr(err),
			elog.String("eventID", req.EventID))
	}

	d.publishStatus(ctx, req, statusSent, "")
	return Result{Outcome: OutcomeSent, Notification: notification}, nil
}

// allow 依次做收件人级和渠道级限流检查，返回是否放行
func (d *dispatcher) allow(ctx context.Context, req domain.DeliveryRequest) (bool, string) {
	recipientKey := fmt.Sprintf("rate:notif:%s:%s", req.Recipient, req.Channel)
	allowed, err := d.limiter.Allow(ctx, recipientKey, d.limitCfg.recipientLimit(), d.limitCfg.recipientWindow())
	if err != nil {
		d.logger.Warn("收件人限流检查失败，降级放行", elog.FieldErr(err))
	} else if !allowed {
		return false, fmt.Sprintf("收件人 %s 触发 %s 渠道限流", req.Recipient, req.Channel)
	}

	limit, ok := d.limitCfg.GlobalDailyLimits[string(req.Channel)]
	if !ok || limit <= 0 {
		return true, ""
	}
	globalKey := fmt.Sprintf("global:rate:%s:%s", req.Channel, time.Now().Format("2006-01-02"))
	allowed, err = d.limiter.Allow(ctx, globalKey, limit, defaultGlobalWindow)
	if err != nil {
		d.logger.Warn("全局限流检查失败，降级放行", elog.FieldErr(err))
		return true, ""
	}
	if !allowed {
		return false, fmt.Sprintf("%s 渠道触发当日全局限流", req.Channel)
	}
	return true, ""
}

// skip 限流命中：落 SKIPPED 记录并发布分析事件，属于正常结论
func (d *dispatcher) skip(ctx context.Context, req domain.DeliveryRequest, reason string) (Result, error) {
	d.logger.Warn("触发限流，跳过发送",
		elog.String("eventID", req.EventID),
		elog.String("reason", reason))

	notification, err := d.repo.Create(ctx, domain.Notification{
		EventID:      req.EventID,
		UserID:       req.UserID,
		Channel:      req.Channel,
		Recipient:    req.Recipient,
		TemplateName: req.TemplateName,
		Status:       domain.SendStatusSkipped,
		Metadata:     req.Metadata,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", errs.ErrCreateNotificationFailed, err)
	}

	d.publishStatus(ctx, req, statusRateLimited, reason)
	return Result{Outcome: OutcomeRateLimited, Notification: notification}, nil
}

// fail 发送失败：标记 FAILED、发布分析事件并把原始错误抛给调用方决定重试
func (d *dispatcher) fail(ctx context.Context, req domain.DeliveryRequest, notification domain.Notification, cause error) (Result, error) {
	if err := d.repo.MarkFailed(ctx, notification.ID, cause.Error()); err != nil {
		d.logger.Error("回写发送失败状态失败",
			elog.FieldErr(err),
			elog.String("eventID", req.EventID))
	}
	notification.Status = domain.SendStatusFailed
	notification.RetryCount++

	d.publishStatus(ctx, req, statusFailed, cause.Error())
	return Result{Outcome: OutcomeFailed, Notification: notification}, cause
}

// publishStatus 分析事件是旁路，发布失败不影响分发结论
func (d *dispatcher) publishStatus(ctx context.Context, req domain.DeliveryRequest, status, errMsg string) {
	err := d.analyticsProd.Produce(ctx, analytics.StatusEvent{
		EventID: req.EventID,
		UserID:  req.UserID,
		Channel: string(req.Channel),
		Status:  status,
		Error:   errMsg,
		SentAt:  time.Now(),
	})
	if err != nil {
		d.logger.Warn("发布分析事件失败",
			elog.FieldErr(err),
			elog.String("eventID", req.EventID),
			elog.String("status", status))
	}
}
