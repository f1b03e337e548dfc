package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/sony/gobreaker"

	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/pkg/breaker"
)

const (
	NameBrevo = "BREVO"

	brevoBaseURL = "https://api.brevo.com/v3"
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

	_ Client = (*Brevo)(nil)
)

// Brevo Brevo 事务邮件实现
type Brevo struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// NewBrevo 创建 Brevo 邮件客户端
func NewBrevo(apiKey string, cbCfg breaker.Config) *Brevo {
	return &Brevo{
		apiKey:  apiKey,
		baseURL: brevoBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cb: breaker.New("brevo", cbCfg),
	}
}

func (b *Brevo) Name() string {
	return NameBrevo
}

func (b *Brevo) SendEmail(ctx context.Context, email Email) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.send(ctx, email)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: brevo", errs.ErrBreakerOpen)
	}
	return err
}

type brevoParty struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoSendReq struct {
	Sender      brevoParty   `json:"sender"`
	To          []brevoParty `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"htmlContent"`
	TextContent string       `json:"textContent"`
}

func (b *Brevo) send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(brevoSendReq{
		Sender:      brevoParty{Name: email.FromName, Email: email.From},
		To:          []brevoParty{{Email: email.To}},
		Subject:     email.Subject,
		HTMLContent: email.HTMLBody,
		TextContent: stripHTML(email.HTMLBody),
	})
	if err != nil {
		return fmt.Errorf("序列化邮件请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/smtp/email", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用 Brevo 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo 响应异常: status = %d, body = %s", resp.StatusCode, body)
	}
	return nil
}

// stripHTML 去掉标签生成纯文本内容
func stripHTML(html string) string {
	return htmlTagPattern.ReplaceAllString(html, "")
}
