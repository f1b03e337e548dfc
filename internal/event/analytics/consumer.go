package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/elog"

	"github.com/khetisetu/notification-event-service/internal/pkg/mqx"
)

const defaultReadTimeout = time.Second

// EventConsumer 消费分析事件并记录日志
//
// 纯旁路消费，后续可以在这里接入 ClickHouse 之类的分析存储。
type EventConsumer struct {
	consumer    mqx.Consumer
	readTimeout time.Duration
	logger      *elog.Component
}

func NewEventConsumer(consumer mqx.Consumer) *EventConsumer {
	return &EventConsumer{
		consumer:    consumer,
		readTimeout: defaultReadTimeout,
		logger:      elog.DefaultLogger,
	}
}

func (c *EventConsumer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				if err := c.consumer.Close(); err != nil {
					c.logger.Warn("关闭消费者失败", elog.FieldErr(err))
				}
				return
			default:
			}
			if err := c.consume(ctx); err != nil {
				c.logger.Error("消费分析事件失败", elog.FieldErr(err))
			}
		}
	}()
}

func (c *EventConsumer) consume(_ context.Context) error {
	msg, err := c.consumer.ReadMessage(c.readTimeout)
	if err != nil {
		var kErr kafka.Error
		if errors.As(err, &kErr) && kErr.Code() == kafka.ErrTimedOut {
			return nil
		}
		return err
	}

	var evt StatusEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.Warn("解析分析事件失败",
			elog.FieldErr(err),
			elog.Any("msg", msg))
	} else {
		c.logger.Info("通知状态分析事件",
			elog.String("eventID", evt.EventID),
			elog.String("userID", evt.UserID),
			elog.String("channel", evt.Channel),
			elog.String("status", evt.Status))
	}

	// 旁路消费，解析失败也直接提交跳过
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		return err
	}
	return nil
}
