package push

import (
	"context"
	"fmt"
	"strings"

	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/repository/dao"
)

const fcmEndpointPrefix = "fcm.googleapis.com/fcm/send/"

// TokenService 查找用户的推送令牌
type TokenService interface {
	// GetToken 返回用户的 FCM 令牌，没有订阅记录时返回 ErrNoAvailableSender
	GetToken(ctx context.Context, userID string) (string, error)
}

type tokenService struct {
	subDAO dao.PushSubscriptionDAO
}

func NewTokenService(subDAO dao.PushSubscriptionDAO) TokenService {
	return &tokenService{subDAO: subDAO}
}

func (s *tokenService) GetToken(ctx context.Context, userID string) (string, error) {
	sub, err := s.subDAO.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("查询推送订阅失败: %w", err)
	}
	// 新版前端直接上报令牌，优先使用
	if sub.Token != "" {
		return sub.Token, nil
	}
	// 旧版前端只上报端点，令牌在 URL 末尾
	if idx := strings.Index(sub.Endpoint, fcmEndpointPrefix); idx >= 0 {
		if token := sub.Endpoint[idx+len(fcmEndpointPrefix):]; token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: 用户 %s 没有推送订阅", errs.ErrNoAvailableSender, userID)
}
