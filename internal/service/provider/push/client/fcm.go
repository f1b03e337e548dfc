package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/pkg/breaker"
)

const fcmSendURL = "https://fcm.googleapis.com/fcm/send"

// Message 一条待推送的消息
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// FCM Firebase Cloud Messaging 推送客户端
type FCM struct {
	serverKey  string
	sendURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

func NewFCM(serverKey string, cbCfg breaker.Config) *FCM {
	return &FCM{
		serverKey: serverKey,
		sendURL:   fcmSendURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cb: breaker.New("fcm", cbCfg),
	}
}

func (f *FCM) Send(ctx context.Context, msg Message) error {
	_, err := f.cb.Execute(func() (any, error) {
		return nil, f.send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: fcm", errs.ErrBreakerOpen)
	}
	return err
}

type fcmSendReq struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmSendResp struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (f *FCM) send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(fcmSendReq{
		To: msg.Token,
		Notification: fcmNotification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return fmt.Errorf("序列化推送请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.sendURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "key="+f.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用 FCM 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("fcm 响应异常: status = %d, body = %s", resp.StatusCode, body)
	}

	var result fcmSendResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("解析 FCM 响应失败: %w", err)
	}
	if result.Failure > 0 {
		reason := "unknown"
		if len(result.Results) > 0 && result.Results[0].Error != "" {
			reason = result.Results[0].Error
		}
		return fmt.Errorf("fcm 推送失败: %s", reason)
	}
	return nil
}
