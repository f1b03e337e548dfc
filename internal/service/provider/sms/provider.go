package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotomicro/ego/core/elog"
	"github.com/sony/gobreaker"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/pkg/breaker"
	"github.com/khetisetu/notification-event-service/internal/service/provider"
	"github.com/khetisetu/notification-event-service/internal/service/provider/sms/client"
)

var _ provider.Provider = (*Provider)(nil)

// Config 短信渠道配置
type Config struct {
	Enabled bool `yaml:"enabled"`
	// SignName 默认短信签名
	SignName string `yaml:"signName"`
	// Templates 模板名到厂商模板编号的映射，厂商侧模板需预先报备
	Templates map[string]string `yaml:"templates"`
}

// Provider 短信供应商
//
// 短信正文由厂商侧的报备模板渲染，这里只负责把模板名换成厂商模板编号
// 并透传参数。
type Provider struct {
	cfg    Config
	client client.Client
	cb     *gobreaker.CircuitBreaker
	logger *elog.Component
}

func NewProvider(cfg Config, c client.Client, cbCfg breaker.Config) *Provider {
	return &Provider{
		cfg:    cfg,
		client: c,
		cb:     breaker.New("sms-"+c.Name(), cbCfg),
		logger: elog.DefaultLogger,
	}
}

func (p *Provider) Channel() domain.Channel {
	return domain.ChannelSMS
}

func (p *Provider) Enabled() bool {
	return p.cfg.Enabled
}

func (p *Provider) Send(ctx context.Context, req domain.DeliveryRequest) error {
	templateID, ok := p.cfg.Templates[req.TemplateName]
	if !ok {
		return fmt.Errorf("%w: 短信模板 %q 未报备", errs.ErrTemplateNotFound, req.TemplateName)
	}

	signName := req.Sender.Name
	if signName == "" {
		signName = p.cfg.SignName
	}

	resp, err := p.execute(ctx, client.SendReq{
		PhoneNumbers:  []string{req.Recipient},
		SignName:      signName,
		TemplateID:    templateID,
		TemplateParam: req.Params,
	})
	if err != nil {
		return err
	}

	for phone, status := range resp.PhoneNumbers {
		if status.Code != client.OK {
			return fmt.Errorf("%w: phone = %s, Code = %s, Message = %s",
				errs.ErrSendNotificationFailed, phone, status.Code, status.Message)
		}
	}

	p.logger.Info("短信发送成功",
		elog.String("to", req.Recipient),
		elog.String("vendor", p.client.Name()))
	return nil
}

func (p *Provider) execute(ctx context.Context, req client.SendReq) (client.SendResp, error) {
	res, err := p.cb.Execute(func() (any, error) {
		if err := ctx.Err(); err != nil {
			return client.SendResp{}, err
		}
		return p.client.Send(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return client.SendResp{}, fmt.Errorf("%w: sms-%s", errs.ErrBreakerOpen, p.client.Name())
	}
	if err != nil {
		return client.SendResp{}, fmt.Errorf("%w: %w", errs.ErrSendNotificationFailed, err)
	}
	return res.(client.SendResp), nil
}
