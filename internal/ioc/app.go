package ioc

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/ego-component/egorm"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/server/egin"
	"github.com/redis/go-redis/v9"

	"github.com/khetisetu/notification-event-service/internal/api/web"
	"github.com/khetisetu/notification-event-service/internal/event/analytics"
	"github.com/khetisetu/notification-event-service/internal/event/deadletter"
	notificationevt "github.com/khetisetu/notification-event-service/internal/event/notification"
	"github.com/khetisetu/notification-event-service/internal/pkg/idempotent"
	"github.com/khetisetu/notification-event-service/internal/pkg/ratelimit"
	"github.com/khetisetu/notification-event-service/internal/pkg/retry"
	"github.com/khetisetu/notification-event-service/internal/repository"
	"github.com/khetisetu/notification-event-service/internal/repository/dao"
	"github.com/khetisetu/notification-event-service/internal/service/dispatcher"
)

const (
	// 业务方直接投递流的消费组，并发度对齐原有部署
	directGroupID        = "notification-event-group"
	directConcurrency    = 3
	requestGroupID       = "delivery-group"
	requestConcurrency   = 6
	analyticsGroupID     = "analytics-group"
	analyticsConcurrency = 2
)

// App 进程内所有组件的装配结果
type App struct {
	WebServer *egin.Component
	Consumers []*notificationevt.StreamConsumer
	Analytics []*analytics.EventConsumer
}

func InitApp() *App {
	db := InitDB()
	redisClient := InitRedisClient()
	producer := InitProducer("notification-event-service")

	disp := initDispatcher(db, redisClient, producer)
	dlq := deadletter.NewProducer(producer)
	retryCfg := initRetryConfig()

	consumers := make([]*notificationevt.StreamConsumer, 0, directConcurrency+requestConcurrency)
	for i := 0; i < directConcurrency; i++ {
		consumers = append(consumers, notificationevt.NewStreamConsumer(
			"direct",
			InitConsumer(directGroupID, notificationevt.DirectEventName),
			disp, dlq, notificationevt.DecodeDirectEvent, retryCfg))
	}
	for i := 0; i < requestConcurrency; i++ {
		consumers = append(consumers, notificationevt.NewStreamConsumer(
			"request",
			InitConsumer(requestGroupID, notificationevt.RequestEventName),
			disp, dlq, notificationevt.DecodeRequestEvent, retryCfg))
	}

	analyticsConsumers := make([]*analytics.EventConsumer, 0, analyticsConcurrency)
	for i := 0; i < analyticsConcurrency; i++ {
		analyticsConsumers = append(analyticsConsumers, analytics.NewEventConsumer(
			InitConsumer(analyticsGroupID, analytics.EventName)))
	}

	return &App{
		WebServer: initWebServer(db),
		Consumers: consumers,
		Analytics: analyticsConsumers,
	}
}

func initDispatcher(db *egorm.Component, redisClient *redis.Client, producer *kafka.Producer) dispatcher.Dispatcher {
	var limitCfg dispatcher.RateLimitConfig
	if err := econf.UnmarshalKey("ratelimit", &limitCfg); err != nil {
		panic(err)
	}

	cbCfg := InitBreakerConfig()
	tmpl := InitTemplateService()
	registry := InitRegistry(
		InitEmailProvider(tmpl, cbCfg),
		InitPushProvider(dao.NewPushSubscriptionDAO(db), tmpl, cbCfg),
		InitSMSProvider(cbCfg),
	)

	repo := repository.NewNotificationRepository(dao.NewNotificationDAO(db))

	var disp dispatcher.Dispatcher = dispatcher.NewDispatcher(
		idempotent.NewRedisIdempotencyService(redisClient),
		ratelimit.NewRedisCounterLimiter(redisClient),
		repo,
		registry,
		analytics.NewProducer(producer),
		limitCfg,
	)
	disp = dispatcher.NewMetricsDispatcher(disp)
	disp = dispatcher.NewTracingDispatcher(disp)
	return disp
}

func initRetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	if econf.Get("retry") != nil {
		if err := econf.UnmarshalKey("retry", &cfg); err != nil {
			panic(err)
		}
	}
	return cfg
}

func initWebServer(db *egorm.Component) *egin.Component {
	server := egin.Load("server.web").Build()
	repo := repository.NewNotificationRepository(dao.NewNotificationDAO(db))
	web.NewHealthHandler(repo).RegisterRoutes(server.Engine)
	return server
}
