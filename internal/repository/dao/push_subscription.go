package dao

import (
	"context"
	"errors"

	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

type PushSubscriptionDAO interface {
	// GetByUserID 查询用户的推送订阅，不存在时返回零值而非错误
	GetByUserID(ctx context.Context, userID string) (PushSubscription, error)
}

// PushSubscription 推送订阅表，由前端在订阅推送时写入
type PushSubscription struct {
	UserID string `gorm:"primaryKey;type:VARCHAR(64);comment:'用户标识'"`
	// 新版前端直接上报 FCM 令牌
	Token string `gorm:"type:VARCHAR(512);comment:'FCM令牌'"`
	// 旧版前端只上报订阅端点，令牌藏在 URL 末尾
	Endpoint string `gorm:"type:VARCHAR(1024);comment:'推送订阅端点'"`
	Ctime    int64
	Utime    int64
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}

type pushSubscriptionDAO struct {
	db *egorm.Component
}

func NewPushSubscriptionDAO(db *egorm.Component) PushSubscriptionDAO {
	return &pushSubscriptionDAO{db: db}
}

func (d *pushSubscriptionDAO) GetByUserID(ctx context.Context, userID string) (PushSubscription, error) {
	var data PushSubscription
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PushSubscription{}, nil
		}
		return PushSubscription{}, err
	}
	return data, nil
}
