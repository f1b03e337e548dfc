package client

import (
	"fmt"
	"sort"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	sms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

const NameTencent = "TENCENT"

var _ Client = (*TencentCloudSMS)(nil)

// TencentCloudSMS 腾讯云短信实现
type TencentCloudSMS struct {
	client   *sms.Client
	appID    string
	signName string
}

// NewTencentCloudSMS 创建腾讯云短信实例
func NewTencentCloudSMS(region, secretID, secretKey, appID, signName string) (*TencentCloudSMS, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	client, err := sms.NewClient(credential, region, cpf)
	if err != nil {
		return nil, err
	}
	return &TencentCloudSMS{
		client:   client,
		appID:    appID,
		signName: signName,
	}, nil
}

func (t *TencentCloudSMS) Name() string {
	return NameTencent
}

func (t *TencentCloudSMS) Send(req SendReq) (SendResp, error) {
	if len(req.PhoneNumbers) == 0 {
		return SendResp{}, fmt.Errorf("%w: %v", ErrInvalidParameter, "手机号码不能为空")
	}

	signName := req.SignName
	if signName == "" {
		signName = t.signName
	}

	request := sms.NewSendSmsRequest()
	request.PhoneNumberSet = common.StringPtrs(req.PhoneNumbers)
	request.SmsSdkAppId = common.StringPtr(t.appID)
	request.SignName = common.StringPtr(signName)
	request.TemplateId = common.StringPtr(req.TemplateID)
	// 腾讯云只接受顺序参数，按 key 升序取值保证稳定
	request.TemplateParamSet = common.StringPtrs(orderedParams(req.TemplateParam))

	response, err := t.client.SendSms(request)
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if response.Response == nil {
		return SendResp{}, fmt.Errorf("%w: %v", ErrSendFailed, "响应异常")
	}

	result := SendResp{
		PhoneNumbers: make(map[string]SendRespStatus),
	}
	if response.Response.RequestId != nil {
		result.RequestID = *response.Response.RequestId
	}
	for _, status := range response.Response.SendStatusSet {
		if status == nil || status.PhoneNumber == nil {
			continue
		}
		code, message := "", ""
		if status.Code != nil {
			code = *status.Code
		}
		if status.Message != nil {
			message = *status.Message
		}
		// 腾讯云成功码是 Ok，统一归一为 OK
		if code == "Ok" {
			code = OK
		}
		result.PhoneNumbers[*status.PhoneNumber] = SendRespStatus{
			Code:    code,
			Message: message,
		}
	}
	return result, nil
}

func orderedParams(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, params[k])
	}
	return values
}
