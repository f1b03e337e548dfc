package client

import "context"

// Email 一封待发送的邮件
type Email struct {
	From     string
	FromName string
	To       string
	Subject  string
	HTMLBody string
}

// Client 邮件发送客户端，每个厂商一个实现，各自持有独立的熔断器
type Client interface {
	// Name 厂商名，用于配置里指定首选客户端
	Name() string
	// SendEmail 发送一封邮件
	SendEmail(ctx context.Context, email Email) error
}
