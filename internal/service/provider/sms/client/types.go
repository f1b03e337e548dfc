package client

import "errors"

// OK 厂商返回的成功码
const OK = "OK"

var (
	ErrInvalidParameter = errors.New("参数非法")
	ErrSendFailed       = errors.New("发送短信失败")
)

// Client 短信厂商客户端
type Client interface {
	// Name 厂商名，大写
	Name() string
	// Send 发送短信
	Send(req SendReq) (SendResp, error)
}

type SendReq struct {
	PhoneNumbers []string
	// SignName 短信签名
	SignName string
	// TemplateID 厂商侧审核通过的模板编号
	TemplateID string
	// TemplateParam 模板参数，腾讯云按 key 升序转为顺序参数
	TemplateParam map[string]string
}

type SendResp struct {
	RequestID string
	// PhoneNumbers 每个手机号的发送状态
	PhoneNumbers map[string]SendRespStatus
}

type SendRespStatus struct {
	Code    string
	Message string
}
