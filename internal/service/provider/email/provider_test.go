//go:build unit

package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/service/provider/email/client"
)

type fakeSender struct {
	name    string
	sendErr error
	sent    []client.Email
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) SendEmail(_ context.Context, email client.Email) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeTemplateService struct {
	renderErr error
}

func (f *fakeTemplateService) Render(templateName string, params map[string]string, _ string) (string, error) {
	if f.renderErr != nil {
		return "", f.renderErr
	}
	return "<p>Hello " + params["name"] + "</p>", nil
}

func (f *fakeTemplateService) ResolveSubject(_ string, params map[string]string, _ string) string {
	return "Welcome " + params["name"]
}

func newRequest() domain.DeliveryRequest {
	return domain.DeliveryRequest{
		EventID:      "e1",
		Recipient:    "a@x.com",
		Channel:      domain.ChannelEmail,
		TemplateName: "welcome",
		Params:       map[string]string{"name": "Asha"},
		Sender:       domain.Sender{Address: "noreply@example.com", Name: "Kheti Setu"},
	}
}

func TestProviderSenderSelection(t *testing.T) {
	t.Parallel()

	brevo := &fakeSender{name: "BREVO"}
	smtp := &fakeSender{name: "SMTP"}

	t.Run("选中配置的首选客户端", func(t *testing.T) {
		p := NewProvider(&fakeTemplateService{}, "smtp", true, brevo, smtp)
		assert.Equal(t, "SMTP", p.ActiveSender())
	})

	t.Run("首选缺失时降级为首个可用", func(t *testing.T) {
		p := NewProvider(&fakeTemplateService{}, "SENDGRID", true, brevo, smtp)
		assert.Equal(t, "BREVO", p.ActiveSender())
	})

	t.Run("没有任何客户端时发送为致命错误", func(t *testing.T) {
		p := NewProvider(&fakeTemplateService{}, "BREVO", true)
		err := p.Send(context.Background(), newRequest())
		assert.ErrorIs(t, err, errs.ErrNoAvailableSender)
		assert.True(t, errs.IsFatal(err))
	})
}

func TestProviderSend(t *testing.T) {
	t.Parallel()

	t.Run("渲染正文并解析主题后交给客户端", func(t *testing.T) {
		sender := &fakeSender{name: "BREVO"}
		p := NewProvider(&fakeTemplateService{}, "BREVO", true, sender)

		require.NoError(t, p.Send(context.Background(), newRequest()))
		require.Len(t, sender.sent, 1)
		sent := sender.sent[0]
		assert.Equal(t, "a@x.com", sent.To)
		assert.Equal(t, "Welcome Asha", sent.Subject)
		assert.Equal(t, "<p>Hello Asha</p>", sent.HTMLBody)
		assert.Equal(t, "noreply@example.com", sent.From)
	})

	t.Run("缺少发件人信息", func(t *testing.T) {
		sender := &fakeSender{name: "BREVO"}
		p := NewProvider(&fakeTemplateService{}, "BREVO", true, sender)

		req := newRequest()
		req.Sender = domain.Sender{}
		err := p.Send(context.Background(), req)
		assert.ErrorIs(t, err, errs.ErrInvalidParameter)
	})

	t.Run("模板缺失原样透传", func(t *testing.T) {
		sender := &fakeSender{name: "BREVO"}
		p := NewProvider(&fakeTemplateService{renderErr: errs.ErrTemplateNotFound}, "BREVO", true, sender)

		err := p.Send(context.Background(), newRequest())
		assert.ErrorIs(t, err, errs.ErrTemplateNotFound)
		assert.Empty(t, sender.sent)
	})

	t.Run("客户端失败包装为发送失败", func(t *testing.T) {
		sender := &fakeSender{name: "BREVO", sendErr: errors.New("brevo down")}
		p := NewProvider(&fakeTemplateService{}, "BREVO", true, sender)

		err := p.Send(context.Background(), newRequest())
		assert.ErrorIs(t, err, errs.ErrSendNotificationFailed)
		assert.False(t, errs.IsFatal(err))
	})
}
