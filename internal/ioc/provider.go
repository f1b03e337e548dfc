package ioc

import (
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/econf"

	"github.com/khetisetu/notification-event-service/internal/pkg/breaker"
	"github.com/khetisetu/notification-event-service/internal/repository/dao"
	"github.com/khetisetu/notification-event-service/internal/service/provider"
	"github.com/khetisetu/notification-event-service/internal/service/provider/email"
	emailclient "github.com/khetisetu/notification-event-service/internal/service/provider/email/client"
	"github.com/khetisetu/notification-event-service/internal/service/provider/push"
	pushclient "github.com/khetisetu/notification-event-service/internal/service/provider/push/client"
	"github.com/khetisetu/notification-event-service/internal/service/provider/sms"
	smsclient "github.com/khetisetu/notification-event-service/internal/service/provider/sms/client"
	tmplsvc "github.com/khetisetu/notification-event-service/internal/service/template"
)

func InitBreakerConfig() breaker.Config {
	type Config struct {
		FailureThreshold uint32 `yaml:"failureThreshold"`
		CooldownSeconds  int    `yaml:"cooldownSeconds"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("breaker", &cfg); err != nil {
		panic(err)
	}
	return breaker.Config{
		FailureThreshold: cfg.FailureThreshold,
		Cooldown:         time.Duration(cfg.CooldownSeconds) * time.Second,
	}
}

func InitTemplateService() tmplsvc.Service {
	type Config struct {
		Dir string `yaml:"dir"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("templates", &cfg); err != nil {
		panic(err)
	}
	return tmplsvc.NewFileService(cfg.Dir)
}

func InitEmailProvider(tmpl tmplsvc.Service, cbCfg breaker.Config) *email.Provider {
	type Config struct {
		Enabled   bool   `yaml:"enabled"`
		Preferred string `yaml:"preferred"`
		Brevo     struct {
			APIKey string `yaml:"apiKey"`
		} `yaml:"brevo"`
		SMTP emailclient.SMTPConfig `yaml:"smtp"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("email", &cfg); err != nil {
		panic(err)
	}

	senders := make([]emailclient.Client, 0, 2)
	if cfg.Brevo.APIKey != "" {
		senders = append(senders, emailclient.NewBrevo(cfg.Brevo.APIKey, cbCfg))
	}
	if cfg.SMTP.Host != "" {
		senders = append(senders, emailclient.NewSMTP(cfg.SMTP, cbCfg))
	}
	return email.NewProvider(tmpl, cfg.Preferred, cfg.Enabled, senders...)
}

func InitPushProvider(db dao.PushSubscriptionDAO, tmpl tmplsvc.Service, cbCfg breaker.Config) *push.Provider {
	type Config struct {
		Enabled   bool   `yaml:"enabled"`
		ServerKey string `yaml:"serverKey"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("push", &cfg); err != nil {
		panic(err)
	}
	fcm := pushclient.NewFCM(cfg.ServerKey, cbCfg)
	return push.NewProvider(fcm, push.NewTokenService(db), tmpl, cfg.Enabled)
}

func InitSMSProvider(cbCfg breaker.Config) *sms.Provider {
	type Config struct {
		Enabled   bool              `yaml:"enabled"`
		SignName  string            `yaml:"signName"`
		Templates map[string]string `yaml:"templates"`
		Vendor    string            `yaml:"vendor"`
		Aliyun    struct {
			RegionID        string `yaml:"regionId"`
			AccessKeyID     string `yaml:"accessKeyId"`
			AccessKeySecret string `yaml:"accessKeySecret"`
		} `yaml:"aliyun"`
		Tencent struct {
			Region    string `yaml:"region"`
			SecretID  string `yaml:"secretId"`
			SecretKey string `yaml:"secretKey"`
			AppID     string `yaml:"appId"`
		} `yaml:"tencent"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("sms", &cfg); err != nil {
		panic(err)
	}

	var (
		c   smsclient.Client
		err error
	)
	switch cfg.Vendor {
	case "tencent":
		c, err = smsclient.NewTencentCloudSMS(cfg.Tencent.Region, cfg.Tencent.SecretID,
			cfg.Tencent.SecretKey, cfg.Tencent.AppID, cfg.SignName)
	default:
		c, err = smsclient.NewAliyunSMS(cfg.Aliyun.RegionID, cfg.Aliyun.AccessKeyID, cfg.Aliyun.AccessKeySecret)
	}
	if err != nil {
		panic(fmt.Sprintf("创建短信客户端失败: %v", err))
	}
	return sms.NewProvider(sms.Config{
		Enabled:   cfg.Enabled,
		SignName:  cfg.SignName,
		Templates: cfg.Templates,
	}, c, cbCfg)
}

func InitRegistry(providers ...provider.Provider) *provider.Registry {
	return provider.NewRegistry(providers...)
}
