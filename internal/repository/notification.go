package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gotomicro/ego/core/elog"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/repository/dao"
)

// NotificationRepository 投递记录仓储
type NotificationRepository interface {
	// Create 以调用方指定的状态落库一条投递记录。
	// 同一 EventID 已有记录时复用旧记录：状态改写为新状态，重试次数保留，
	// 这样跨尝试的 RetryCount 才能持续累积。
	Create(ctx context.Context, notification domain.Notification) (domain.Notification, error)
	// MarkSent 更新为发送成功
	MarkSent(ctx context.Context, id uint64) error
	// MarkFailed 更新为发送失败并递增重试次数
	MarkFailed(ctx context.Context, id uint64, errMsg string) error
	// GetByEventID 根据事件标识查询
	GetByEventID(ctx context.Context, eventID string) (domain.Notification, error)
	// Count 投递记录总数
	Count(ctx context.Context) (int64, error)
}

type notificationRepository struct {
	dao    dao.NotificationDAO
	logger *elog.Component
}

func NewNotificationRepository(d dao.NotificationDAO) NotificationRepository {
	return &notificationRepository{
		dao:    d,
		logger: elog.DefaultLogger,
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	entity, err := r.toEntity(notification)
	if err != nil {
		return domain.Notification{}, err
	}

	created, err := r.dao.Create(ctx, entity)
	if err == nil {
		return r.toDomain(created), nil
	}
	if !errors.Is(err, errs.ErrNotificationDuplicate) {
		return domain.Notification{}, err
	}

	// 之前失败过的同一事件再次进入流水线，复用旧记录
	existing, err := r.dao.GetByEventID(ctx, notification.EventID)
	if err != nil {
		return domain.Notification{}, err
	}
	if err := r.dao.UpdateStatus(ctx, existing.ID, string(notification.Status), ""); err != nil {
		return domain.Notification{}, err
	}
	existing.Status = string(notification.Status)
	existing.ErrorMessage = ""
	return r.toDomain(existing), nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.dao.UpdateStatus(ctx, id, string(domain.SendStatusSent), "")
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	return r.dao.MarkFailed(ctx, id, errMsg)
}

func (r *notificationRepository) GetByEventID(ctx context.Context, eventID string) (domain.Notification, error) {
	entity, err := r.dao.GetByEventID(ctx, eventID)
	if err != nil {
		return domain.Notification{}, err
	}
	return r.toDomain(entity), nil
}

func (r *notificationRepository) Count(ctx context.Context) (int64, error) {
	return r.dao.Count(ctx)
}

func (r *notificationRepository) toEntity(n domain.Notification) (dao.Notification, error) {
	metadata, err := n.MarshalMetadata()
	if err != nil {
		return dao.Notification{}, err
	}
	return dao.Notification{
		ID:           n.ID,
		EventID:      n.EventID,
		UserID:       n.UserID,
		Channel:      string(n.Channel),
		Recipient:    n.Recipient,
		TemplateName: n.TemplateName,
		Status:       string(n.Status),
		ErrorMessage: n.ErrorMessage,
		RetryCount:   n.RetryCount,
		Metadata:     metadata,
	}, nil
}

func (r *notificationRepository) toDomain(entity dao.Notification) domain.Notification {
	var metadata map[string]any
	if entity.Metadata != "" {
		if err := json.Unmarshal([]byte(entity.Metadata), &metadata); err != nil {
			r.logger.Warn("解析投递记录元数据失败",
				elog.FieldErr(err),
				elog.String("eventID", entity.EventID))
		}
	}
	return domain.Notification{
		ID:           entity.ID,
		EventID:      entity.EventID,
		UserID:       entity.UserID,
		Channel:      domain.Channel(entity.Channel),
		Recipient:    entity.Recipient,
		TemplateName: entity.TemplateName,
		Status:       domain.SendStatus(entity.Status),
		ErrorMessage: entity.ErrorMessage,
		RetryCount:   entity.RetryCount,
		Metadata:     metadata,
		Ctime:        time.UnixMilli(entity.Ctime),
		Utime:        time.UnixMilli(entity.Utime),
	}
}
