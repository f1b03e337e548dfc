//go:build unit

package push

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/repository/dao"
	"github.com/khetisetu/notification-event-service/internal/service/provider/push/client"
)

type fakeSubDAO struct {
	subs map[string]dao.PushSubscription
	err  error
}

func (f *fakeSubDAO) GetByUserID(_ context.Context, userID string) (dao.PushSubscription, error) {
	if f.err != nil {
		return dao.PushSubscription{}, f.err
	}
	return f.subs[userID], nil
}

type fakeFCM struct {
	sendErr error
	sent    []client.Message
}

func (f *fakeFCM) Send(_ context.Context, msg client.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeTemplateService struct{}

func (fakeTemplateService) Render(_ string, params map[string]string, _ string) (string, error) {
	return "Hello " + params["name"], nil
}

func (fakeTemplateService) ResolveSubject(_ string, params map[string]string, _ string) string {
	return "Welcome " + params["name"]
}

func TestTokenService(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		sub       dao.PushSubscription
		wantToken string
		wantErr   error
	}{
		{
			name:      "令牌列优先",
			sub:       dao.PushSubscription{UserID: "u1", Token: "tok-1", Endpoint: "https://fcm.googleapis.com/fcm/send/tok-2"},
			wantToken: "tok-1",
		},
		{
			name:      "旧版端点取末尾令牌",
			sub:       dao.PushSubscription{UserID: "u1", Endpoint: "https://fcm.googleapis.com/fcm/send/tok-endpoint"},
			wantToken: "tok-endpoint",
		},
		{
			name:    "无订阅记录",
			sub:     dao.PushSubscription{},
			wantErr: errs.ErrNoAvailableSender,
		},
		{
			name:    "端点非 FCM 无法取令牌",
			sub:     dao.PushSubscription{UserID: "u1", Endpoint: "https://updates.push.services.mozilla.com/wpush/v2/abc"},
			wantErr: errs.ErrNoAvailableSender,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewTokenService(&fakeSubDAO{subs: map[string]dao.PushSubscription{"u1": tc.sub}})
			token, err := svc.GetToken(context.Background(), "u1")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantToken, token)
		})
	}
}

func TestProviderSend(t *testing.T) {
	t.Parallel()

	newReq := func() domain.DeliveryRequest {
		return domain.DeliveryRequest{
			EventID:      "e1",
			UserID:       "u1",
			Recipient:    "u1",
			Channel:      domain.ChannelPush,
			TemplateName: "welcome",
			Params:       map[string]string{"name": "Asha"},
			Metadata:     map[string]any{"source": "direct", "attempt": 1},
		}
	}

	t.Run("渲染后携带令牌推送", func(t *testing.T) {
		fcm := &fakeFCM{}
		tokenSvc := NewTokenService(&fakeSubDAO{subs: map[string]dao.PushSubscription{
			"u1": {UserID: "u1", Token: "tok-1"},
		}})
		p := NewProvider(fcm, tokenSvc, fakeTemplateService{}, true)

		require.NoError(t, p.Send(context.Background(), newReq()))
		require.Len(t, fcm.sent, 1)
		msg := fcm.sent[0]
		assert.Equal(t, "tok-1", msg.Token)
		assert.Equal(t, "Welcome Asha", msg.Title)
		assert.Equal(t, "Hello Asha", msg.Body)
		// 元数据只透传字符串值
		assert.Equal(t, map[string]string{"source": "direct"}, msg.Data)
	})

	t.Run("无订阅的用户为致命错误", func(t *testing.T) {
		fcm := &fakeFCM{}
		tokenSvc := NewTokenService(&fakeSubDAO{})
		p := NewProvider(fcm, tokenSvc, fakeTemplateService{}, true)

		err := p.Send(context.Background(), newReq())
		assert.ErrorIs(t, err, errs.ErrNoAvailableSender)
		assert.True(t, errs.IsFatal(err))
		assert.Empty(t, fcm.sent)
	})

	t.Run("推送失败包装为发送失败", func(t *testing.T) {
		fcm := &fakeFCM{sendErr: errors.New("fcm down")}
		tokenSvc := NewTokenService(&fakeSubDAO{subs: map[string]dao.PushSubscription{
			"u1": {UserID: "u1", Token: "tok-1"},
		}})
		p := NewProvider(fcm, tokenSvc, fakeTemplateService{}, true)

		err := p.Send(context.Background(), newReq())
		assert.ErrorIs(t, err, errs.ErrSendNotificationFailed)
		assert.False(t, errs.IsFatal(err))
	})
}
