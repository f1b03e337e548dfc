package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/khetisetu/notification-event-service/internal/errs"
)

type NotificationDAO interface {
	// Create 创建单条投递记录，EventID 冲突时返回 ErrNotificationDuplicate
	Create(ctx context.Context, data Notification) (Notification, error)
	// GetByEventID 根据事件标识查询投递记录
	GetByEventID(ctx context.Context, eventID string) (Notification, error)
	// UpdateStatus 更新投递状态，清空或覆盖错误信息
	UpdateStatus(ctx context.Context, id uint64, status string, errMsg string) error
	// MarkFailed 更新为失败状态并递增重试次数
	MarkFailed(ctx context.Context, id uint64, errMsg string) error
	// Count 统计投递记录总数，用于存活检查
	Count(ctx context.Context) (int64, error)
}

// Notification 投递记录表
type Notification struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement;comment:'自增主键'"`
	EventID      string `gorm:"type:VARCHAR(64);NOT NULL;uniqueIndex:idx_event_id;comment:'事件唯一标识，幂等键'"`
	UserID       string `gorm:"type:VARCHAR(64);index:idx_user_id;comment:'用户标识'"`
	Channel      string `gorm:"type:ENUM('EMAIL','PUSH','SMS');NOT NULL;comment:'发送渠道'"`
	Recipient    string `gorm:"type:VARCHAR(256);NOT NULL;comment:'接收者(邮箱/手机号/用户ID)'"`
	TemplateName string `gorm:"type:VARCHAR(128);comment:'模板名'"`
	Status       string `gorm:"type:ENUM('PENDING','SENT','FAILED','SKIPPED');DEFAULT:'PENDING';index:idx_status;comment:'投递状态'"`
	ErrorMessage string `gorm:"type:TEXT;comment:'最近一次失败原因'"`
	RetryCount   int8   `gorm:"NOT NULL;DEFAULT:0;comment:'失败重试次数'"`
	Metadata     string `gorm:"type:TEXT;comment:'附加元数据，JSON'"`
	Ctime        int64
	Utime        int64
}

func (Notification) TableName() string {
	return "notifications"
}

type notificationDAO struct {
	db *egorm.Component
}

// NewNotificationDAO 创建投递记录DAO实例
func NewNotificationDAO(db *egorm.Component) NotificationDAO {
	return &notificationDAO{
		db: db,
	}
}

func (d *notificationDAO) Create(ctx context.Context, data Notification) (Notification, error) {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now

	if err := d.db.WithContext(ctx).Create(&data).Error; err != nil {
		if d.isUniqueConstraintError(err) {
			return Notification{}, fmt.Errorf("%w: eventID = %s", errs.ErrNotificationDuplicate, data.EventID)
		}
		return Notification{}, err
	}
	return data, nil
}

func (d *notificationDAO) GetByEventID(ctx context.Context, eventID string) (Notification, error) {
	var data Notification
	err := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Notification{}, fmt.Errorf("%w: eventID = %s", errs.ErrNotificationNotFound, eventID)
		}
		return Notification{}, err
	}
	return data, nil
}

func (d *notificationDAO) UpdateStatus(ctx context.Context, id uint64, status string, errMsg string) error {
	res := d.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"error_message": errMsg,
			"utime":         time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrNotificationNotFound, id)
	}
	return nil
}

func (d *notificationDAO) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	res := d.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        "FAILED",
			"error_message": errMsg,
			"retry_count":   gorm.Expr("`retry_count` + 1"),
			"utime":         time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrNotificationNotFound, id)
	}
	return nil
}

func (d *notificationDAO) Count(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Notification{}).Count(&count).Error
	return count, err
}

// isUniqueConstraintError 检查是否是唯一索引冲突错误
func (d *notificationDAO) isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	me := new(mysql.MySQLError)
	if ok := errors.As(err, &me); ok {
		const uniqueIndexErrNo uint16 = 1062
		return me.Number == uniqueIndexErrNo
	}
	return false
}
