package notification

import (
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
)

const (
	// DirectEventName 业务方直接投递的通知事件流
	DirectEventName = "notifications"
	// RequestEventName 规则引擎触发的投递请求流
	RequestEventName = "notification-requests"
)

// SenderConfig 事件内嵌的发件人配置
type SenderConfig struct {
	SenderEmail string `json:"senderEmail"`
	SenderName  string `json:"senderName"`
}

// DirectEvent 业务方直接投递的事件，没有事件标识，消费端生成
type DirectEvent struct {
	Recipient    string            `json:"recipient"`
	Type         string            `json:"type"`
	TemplateName string            `json:"templateName"`
	Params       map[string]string `json:"params"`
	Language     string            `json:"language"`
	SenderConfig *SenderConfig     `json:"senderConfig"`
}

// ToDomain 直接事件没有自带标识，这里生成 UUID 作为幂等键，
// 同一条消息的每次重投因此都是新事件，只能靠数据库唯一索引兜底。
func (e DirectEvent) ToDomain() (domain.DeliveryRequest, error) {
	eventID, err := uuid.NewV4()
	if err != nil {
		return domain.DeliveryRequest{}, fmt.Errorf("%w: 生成事件标识失败: %w", errs.ErrInvalidParameter, err)
	}

	channel := domain.Channel(e.Type)
	// 邮箱和用户标识在直接投递里同收件人一致，短信没有可靠的用户标识
	userID := e.Recipient
	if channel == domain.ChannelSMS {
		userID = "unknown"
	}

	req := domain.DeliveryRequest{
		EventID:      eventID.String(),
		UserID:       userID,
		Recipient:    e.Recipient,
		Channel:      channel,
		TemplateName: e.TemplateName,
		Params:       e.Params,
		Language:     e.Language,
		Metadata:     map[string]any{"source": "direct"},
	}
	if e.SenderConfig != nil {
		req.Sender = domain.Sender{
			Address: e.SenderConfig.SenderEmail,
			Name:    e.SenderConfig.SenderName,
		}
	}
	return req, nil
}

// RequestEvent 规则引擎触发的投递请求，自带事件标识和触发上下文
type RequestEvent struct {
	EventID      string            `json:"eventId"`
	UserID       string            `json:"userId"`
	Recipient    string            `json:"recipient"`
	Type         string            `json:"type"`
	TemplateName string            `json:"templateName"`
	Params       map[string]string `json:"params"`
	Language     string            `json:"language"`
	TriggerID    string            `json:"triggerId"`
	SenderConfig *SenderConfig     `json:"senderConfig"`
	Metadata     map[string]any    `json:"metadata"`
}

func (e RequestEvent) ToDomain() (domain.DeliveryRequest, error) {
	metadata := e.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["source"] = "trigger"

	req := domain.DeliveryRequest{
		EventID:      e.EventID,
		UserID:       e.UserID,
		Recipient:    e.Recipient,
		Channel:      domain.Channel(e.Type),
		TemplateName: e.TemplateName,
		Params:       e.Params,
		Language:     e.Language,
		TriggerID:    e.TriggerID,
		Metadata:     metadata,
	}
	if e.SenderConfig != nil {
		req.Sender = domain.Sender{
			Address: e.SenderConfig.SenderEmail,
			Name:    e.SenderConfig.SenderName,
		}
	}
	return req, nil
}
