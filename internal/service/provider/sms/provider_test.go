//go:build unit

package sms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/pkg/breaker"
	"github.com/khetisetu/notification-event-service/internal/service/provider/sms/client"
)

type fakeSMSClient struct {
	sendErr error
	resp    client.SendResp
	reqs    []client.SendReq
}

func (f *fakeSMSClient) Name() string { return "FAKE" }

func (f *fakeSMSClient) Send(req client.SendReq) (client.SendResp, error) {
	f.reqs = append(f.reqs, req)
	if f.sendErr != nil {
		return client.SendResp{}, f.sendErr
	}
	return f.resp, nil
}

func okResp(phone string) client.SendResp {
	return client.SendResp{
		RequestID: "req-1",
		PhoneNumbers: map[string]client.SendRespStatus{
			phone: {Code: client.OK},
		},
	}
}

func newReq() domain.DeliveryRequest {
	return domain.DeliveryRequest{
		EventID:      "e1",
		Recipient:    "13800138000",
		Channel:      domain.ChannelSMS,
		TemplateName: "order_shipped",
		Params:       map[string]string{"orderId": "A-1001"},
	}
}

func newCfg() Config {
	return Config{
		Enabled:   true,
		SignName:  "凯蒂农服",
		Templates: map[string]string{"order_shipped": "SMS_001"},
	}
}

func TestProviderSend(t *testing.T) {
	t.Parallel()

	t.Run("映射厂商模板编号后发送", func(t *testing.T) {
		c := &fakeSMSClient{resp: okResp("13800138000")}
		p := NewProvider(newCfg(), c, breaker.Config{})

		require.NoError(t, p.Send(context.Background(), newReq()))
		require.Len(t, c.reqs, 1)
		sent := c.reqs[0]
		assert.Equal(t, []string{"13800138000"}, sent.PhoneNumbers)
		assert.Equal(t, "SMS_001", sent.TemplateID)
		assert.Equal(t, "凯蒂农服", sent.SignName)
		assert.Equal(t, map[string]string{"orderId": "A-1001"}, sent.TemplateParam)
	})

	t.Run("未报备的模板为致命错误", func(t *testing.T) {
		c := &fakeSMSClient{resp: okResp("13800138000")}
		p := NewProvider(newCfg(), c, breaker.Config{})

		req := newReq()
		req.TemplateName = "unknown"
		err := p.Send(context.Background(), req)
		assert.ErrorIs(t, err, errs.ErrTemplateNotFound)
		assert.True(t, errs.IsFatal(err))
		assert.Empty(t, c.reqs)
	})

	t.Run("厂商失败包装为发送失败", func(t *testing.T) {
		c := &fakeSMSClient{sendErr: errors.New("aliyun down")}
		p := NewProvider(newCfg(), c, breaker.Config{})

		err := p.Send(context.Background(), newReq())
		assert.ErrorIs(t, err, errs.ErrSendNotificationFailed)
	})

	t.Run("单个手机号失败状态报错", func(t *testing.T) {
		c := &fakeSMSClient{resp: client.SendResp{
			PhoneNumbers: map[string]client.SendRespStatus{
				"13800138000": {Code: "isv.BUSINESS_LIMIT_CONTROL", Message: "触发流控"},
			},
		}}
		p := NewProvider(newCfg(), c, breaker.Config{})

		err := p.Send(context.Background(), newReq())
		assert.ErrorIs(t, err, errs.ErrSendNotificationFailed)
	})

	t.Run("连续失败后熔断快速失败", func(t *testing.T) {
		c := &fakeSMSClient{sendErr: errors.New("aliyun down")}
		p := NewProvider(newCfg(), c, breaker.Config{FailureThreshold: 3, Cooldown: time.Minute})

		for i := 0; i < 3; i++ {
			assert.Error(t, p.Send(context.Background(), newReq()))
		}
		require.Len(t, c.reqs, 3)

		err := p.Send(context.Background(), newReq())
		assert.ErrorIs(t, err, errs.ErrBreakerOpen)
		assert.Len(t, c.reqs, 3)
	})
}
