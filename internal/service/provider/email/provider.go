package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/gotomicro/ego/core/elog"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/service/provider"
	"github.com/khetisetu/notification-event-service/internal/service/provider/email/client"
	tmplsvc "github.com/khetisetu/notification-event-service/internal/service/template"
)

var _ provider.Provider = (*Provider)(nil)

// Provider 邮件供应商
//
// 启动期从候选客户端里选定一个（配置首选，缺失时降级为首个可用），
// 之后不再切换。厂商级故障只靠各客户端自己的熔断器快速失败，
// 不做飞行中的厂商切换。
type Provider struct {
	active  client.Client
	tmplSvc tmplsvc.Service
	enabled bool
	logger  *elog.Component
}

// NewProvider 创建邮件供应商
func NewProvider(tmplSvc tmplsvc.Service, preferred string, enabled bool, senders ...client.Client) *Provider {
	logger := elog.DefaultLogger

	var active client.Client
	for _, s := range senders {
		if strings.EqualFold(s.Name(), preferred) {
			active = s
			break
		}
	}
	if active == nil && len(senders) > 0 {
		active = senders[0]
		logger.Warn("未找到配置的邮件客户端，降级使用首个可用客户端",
			elog.String("preferred", preferred),
			elog.String("fallback", active.Name()))
	}
	if active == nil {
		logger.Error("没有任何可用的邮件客户端")
	} else {
		logger.Info("邮件供应商初始化完成", elog.String("sender", active.Name()))
	}

	return &Provider{
		active:  active,
		tmplSvc: tmplSvc,
		enabled: enabled,
		logger:  logger,
	}
}

// ActiveSender 当前选定的客户端名，仅用于观测
func (p *Provider) ActiveSender() string {
	if p.active == nil {
		return ""
	}
	return p.active.Name()
}

func (p *Provider) Channel() domain.Channel {
	return domain.ChannelEmail
}

func (p *Provider) Enabled() bool {
	return p.enabled
}

func (p *Provider) Send(ctx context.Context, req domain.DeliveryRequest) error {
	if p.active == nil {
		return fmt.Errorf("%w: 邮件客户端未配置", errs.ErrNoAvailableSender)
	}
	if req.Sender.Address == "" {
		return fmt.Errorf("%w: 缺少发件人信息", errs.ErrInvalidParameter)
	}

	body, err := p.tmplSvc.Render(req.TemplateName, req.Params, req.Language)
	if err != nil {
		return err
	}
	subject := p.tmplSvc.ResolveSubject(req.TemplateName, req.Params, req.Language)

	err = p.active.SendEmail(ctx, client.Email{
		From:     req.Sender.Address,
		FromName: req.Sender.Name,
		To:       req.Recipient,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendNotificationFailed, err)
	}

	p.logger.Info("邮件发送成功",
		elog.String("to", req.Recipient),
		elog.String("sender", p.active.Name()))
	return nil
}
