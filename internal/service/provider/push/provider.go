package push

import (
	"context"
	"fmt"

	"github.com/gotomicro/ego/core/elog"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/service/provider"
	"github.com/khetisetu/notification-event-service/internal/service/provider/push/client"
	tmplsvc "github.com/khetisetu/notification-event-service/internal/service/template"
)

var _ provider.Provider = (*Provider)(nil)

// Sender 推送发送端，由 client.FCM 实现
type Sender interface {
	Send(ctx context.Context, msg client.Message) error
}

// Provider 应用内推送供应商
type Provider struct {
	sender   Sender
	tokenSvc TokenService
	tmplSvc  tmplsvc.Service
	enabled  bool
	logger   *elog.Component
}

func NewProvider(sender Sender, tokenSvc TokenService, tmplSvc tmplsvc.Service, enabled bool) *Provider {
	return &Provider{
		sender:   sender,
		tokenSvc: tokenSvc,
		tmplSvc:  tmplSvc,
		enabled:  enabled,
		logger:   elog.DefaultLogger,
	}
}

func (p *Provider) Channel() domain.Channel {
	return domain.ChannelPush
}

func (p *Provider) Enabled() bool {
	return p.enabled
}

func (p *Provider) Send(ctx context.Context, req domain.DeliveryRequest) error {
	// 推送按用户投递，收件人即用户标识
	userID := req.UserID
	if userID == "" {
		userID = req.Recipient
	}
	token, err := p.tokenSvc.GetToken(ctx, userID)
	if err != nil {
		return err
	}

	body, err := p.tmplSvc.Render(req.TemplateName, req.Params, req.Language)
	if err != nil {
		return err
	}
	title := p.tmplSvc.ResolveSubject(req.TemplateName, req.Params, req.Language)

	data := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		if s, ok := v.(string); ok {
			data[k] = s
		}
	}
	err = p.sender.Send(ctx, client.Message{
		Token: token,
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendNotificationFailed, err)
	}

	p.logger.Info("推送发送成功", elog.String("userID", userID))
	return nil
}
