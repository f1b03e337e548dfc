package provider

import (
	"context"
	"fmt"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
)

// Provider 渠道供应商能力接口
type Provider interface {
	// Channel 该供应商负责的渠道
	Channel() domain.Channel
	// Enabled 是否启用，由配置决定
	Enabled() bool
	// Send 渲染并发送通知，失败返回错误
	Send(ctx context.Context, req domain.DeliveryRequest) error
}

// Registry 供应商注册表
//
// 启动期根据配置构建，之后只读，运行期不做任何变更。
type Registry struct {
	providers map[domain.Channel]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	m := make(map[domain.Channel]Provider, len(providers))
	for _, p := range providers {
		m[p.Channel()] = p
	}
	return &Registry{providers: m}
}

// Resolve 解析渠道对应的供应商
//
// 渠道没有注册或者供应商被禁用都是配置层面的致命错误，不可重试。
func (r *Registry) Resolve(channel domain.Channel) (Provider, error) {
	p, ok := r.providers[channel]
	if !ok || !p.Enabled() {
		return nil, fmt.Errorf("%w: channel = %s", errs.ErrNoAvailableProvider, channel)
	}
	return p, nil
}
