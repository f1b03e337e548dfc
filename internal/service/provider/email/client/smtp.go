package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"github.com/wneessen/go-mail"

	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/pkg/breaker"
)

const NameSMTP = "SMTP"

var _ Client = (*SMTP)(nil)

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SMTP 通过 SMTP 直连发送的实现，作为 REST 厂商不可用时的备选
type SMTP struct {
	cfg SMTPConfig
	cb  *gobreaker.CircuitBreaker
}

func NewSMTP(cfg SMTPConfig, cbCfg breaker.Config) *SMTP {
	return &SMTP{
		cfg: cfg,
		cb:  breaker.New("smtp", cbCfg),
	}
}

func (s *SMTP) Name() string {
	return NameSMTP
}

func (s *SMTP) SendEmail(ctx context.Context, email Email) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.send(ctx, email)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: smtp", errs.ErrBreakerOpen)
	}
	return err
}

func (s *SMTP) send(ctx context.Context, email Email) error {
	m := mail.NewMsg()
	if err := m.FromFormat(email.FromName, email.From); err != nil {
		return fmt.Errorf("%w: 发件人地址非法 %q", errs.ErrInvalidParameter, email.From)
	}
	if err := m.To(email.To); err != nil {
		return fmt.Errorf("%w: 收件人地址非法 %q", errs.ErrInvalidParameter, email.To)
	}
	m.Subject(email.Subject)
	m.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	m.AddAlternativeString(mail.TypeTextPlain, stripHTML(email.HTMLBody))

	c, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("创建 SMTP 客户端失败: %w", err)
	}
	return c.DialAndSendWithContext(ctx, m)
}
