//go:build unit

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/pkg/breaker"
)

func newTestBrevo(t *testing.T, handler http.HandlerFunc, cbCfg breaker.Config) (*Brevo, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	b := NewBrevo("test-key", cbCfg)
	b.baseURL = server.URL
	return b, server
}

func TestBrevoSendEmail(t *testing.T) {
	t.Parallel()

	email := Email{
		From:     "noreply@example.com",
		FromName: "Example",
		To:       "a@x.com",
		Subject:  "Welcome Asha",
		HTMLBody: "<p>Hello</p>",
	}

	t.Run("发送成功", func(t *testing.T) {
		var gotAPIKey atomic.Value
		b, _ := newTestBrevo(t, func(w http.ResponseWriter, r *http.Request) {
			gotAPIKey.Store(r.Header.Get("api-key"))
			w.WriteHeader(http.StatusCreated)
		}, breaker.Config{})

		require.NoError(t, b.SendEmail(context.Background(), email))
		assert.Equal(t, "test-key", gotAPIKey.Load())
	})

	t.Run("非2xx响应报错", func(t *testing.T) {
		b, _ := newTestBrevo(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		}, breaker.Config{})

		assert.Error(t, b.SendEmail(context.Background(), email))
	})

	t.Run("连续失败后熔断快速失败", func(t *testing.T) {
		var calls atomic.Int32
		b, _ := newTestBrevo(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "boom", http.StatusInternalServerError)
		}, breaker.Config{FailureThreshold: 3, Cooldown: 100 * time.Millisecond})

		for i := 0; i < 3; i++ {
			assert.Error(t, b.SendEmail(context.Background(), email))
		}
		assert.Equal(t, int32(3), calls.Load())

		// 熔断已打开，不再外呼
		err := b.SendEmail(context.Background(), email)
		assert.ErrorIs(t, err, errs.ErrBreakerOpen)
		assert.Equal(t, int32(3), calls.Load())

		// 冷却结束后放行一次试探请求
		time.Sleep(150 * time.Millisecond)
		assert.Error(t, b.SendEmail(context.Background(), email))
		assert.Equal(t, int32(4), calls.Load())
	})
}

func TestStripHTML(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Hello Asha", stripHTML("<p>Hello <b>Asha</b></p>"))
}
