package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"

	"github.com/khetisetu/notification-event-service/internal/repository"
)

// HealthHandler 健康检查，同时探活数据库
type HealthHandler struct {
	repo   repository.NotificationRepository
	logger *elog.Component
}

func NewHealthHandler(repo repository.NotificationRepository) *HealthHandler {
	return &HealthHandler{
		repo:   repo,
		logger: elog.DefaultLogger,
	}
}

func (h *HealthHandler) RegisterRoutes(server *gin.Engine) {
	server.GET("/health", h.Health)
}

// Health 探活失败也返回 200，降级信息放在响应体里
func (h *HealthHandler) Health(ctx *gin.Context) {
	count, err := h.repo.Count(ctx.Request.Context())
	if err != nil {
		h.logger.Error("健康检查失败", elog.FieldErr(err))
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "ERROR",
			"kafka":   "Consumer Running",
			"details": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":        "OK",
		"kafka":         "Consumer Running",
		"notifications": count,
	})
}
