package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/khetisetu/notification-event-service/internal/errs"
)

// Channel 通知渠道
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelPush  Channel = "PUSH"
	ChannelSMS   Channel = "SMS"
)

func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelPush || c == ChannelSMS
}

// SendStatus 投递记录状态
type SendStatus string

const (
	SendStatusPending SendStatus = "PENDING" // 已落库，尚未外呼
	SendStatusSent    SendStatus = "SENT"    // 供应商确认发送成功
	SendStatusFailed  SendStatus = "FAILED"  // 供应商发送失败
	SendStatusSkipped SendStatus = "SKIPPED" // 被限流跳过，未外呼
)

// Sender 发件人信息，含义随渠道不同（邮箱地址、短信签名等）
type Sender struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// DeliveryRequest 一次投递请求
//
// EventID 是全局唯一的幂等键：两个 EventID 相同的请求无论载荷是否一致，
// 都视为同一次逻辑投递。
type DeliveryRequest struct {
	EventID      string
	UserID       string
	Recipient    string            // 邮箱/手机号/用户ID
	Channel      Channel           // 发送渠道
	TemplateName string            // 关联的模板
	Params       map[string]string // 渲染模板时使用的参数
	Language     string
	Sender       Sender
	TriggerID    string         // 规则触发时携带，直接投递为空
	Metadata     map[string]any // 来源/审计信息
}

func (r DeliveryRequest) Validate() error {
	if r.EventID == "" {
		return fmt.Errorf("%w: EventID = %q", errs.ErrInvalidParameter, r.EventID)
	}

	if r.Recipient == "" {
		return fmt.Errorf("%w: Recipient = %q", errs.ErrInvalidParameter, r.Recipient)
	}

	if !r.Channel.IsValid() {
		return fmt.Errorf("%w: Channel = %q", errs.ErrUnknownChannel, r.Channel)
	}

	if r.TemplateName == "" {
		return fmt.Errorf("%w: TemplateName = %q", errs.ErrInvalidParameter, r.TemplateName)
	}

	return nil
}

// TraceID 规则触发的请求以 TriggerID 作为链路标识，否则退回 EventID
func (r DeliveryRequest) TraceID() string {
	if r.TriggerID != "" {
		return r.TriggerID
	}
	return r.EventID
}

// Notification 投递记录领域模型，每次实际尝试对应一条，由分发器独占写入
type Notification struct {
	ID           uint64
	EventID      string
	UserID       string
	Channel      Channel
	Recipient    string
	TemplateName string
	Status       SendStatus
	ErrorMessage string
	RetryCount   int8 // 仅在转入 FAILED 时递增
	Metadata     map[string]any
	Ctime        time.Time
	Utime        time.Time
}

func (n *Notification) MarshalMetadata() (string, error) {
	if len(n.Metadata) == 0 {
		return "{}", nil
	}
	jsonBytes, err := json.Marshal(n.Metadata)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}
