package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter         = errors.New("参数错误")
	ErrUnknownChannel           = errors.New("未知渠道类型")
	ErrSendNotificationFailed   = errors.New("发送通知失败")
	ErrCreateNotificationFailed = errors.New("创建投递记录失败")
	ErrNotificationNotFound     = errors.New("投递记录不存在")
	ErrNotificationDuplicate    = errors.New("投递记录唯一索引冲突")

	ErrNoAvailableProvider = errors.New("无可用供应商")
	ErrNoAvailableSender   = errors.New("无可用发送客户端")
	ErrTemplateNotFound    = errors.New("模板不存在")
	ErrBreakerOpen         = errors.New("熔断器已打开")
)

// IsFatal 判定不可重试的致命错误：参数非法、渠道未注册供应商、模板缺失等配置类问题。
// 这类错误重试不会有改善，调用方应当直接走死信流。
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrUnknownChannel) ||
		errors.Is(err, ErrNoAvailableProvider) ||
		errors.Is(err, ErrNoAvailableSender) ||
		errors.Is(err, ErrTemplateNotFound)
}
