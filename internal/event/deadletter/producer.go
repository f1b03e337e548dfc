package deadletter

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/elog"

	"github.com/khetisetu/notification-event-service/internal/pkg/mqx"
)

const (
	// Topic 死信流
	Topic = "notification-dlq"

	// ReasonHeader 死信原因所在的消息头
	ReasonHeader = "reason"
)

// Producer 死信路由器
//
// 把无法处理的原始消息原样转入死信流。转发成功意味着消息"已处理"，
// 调用方可以提交消费进度；转发失败时调用方不得提交，交给 broker 重投兜底。
type Producer struct {
	producer mqx.Producer
	topic    string
	logger   *elog.Component
}

func NewProducer(p mqx.Producer) *Producer {
	return &Producer{
		producer: p,
		topic:    Topic,
		logger:   elog.DefaultLogger,
	}
}

// Forward 把原始载荷连同失败原因转入死信流，每次触发恰好转发一条
func (p *Producer) Forward(ctx context.Context, payload []byte, reason string) error {
	err := mqx.SyncProduce(ctx, p.producer, &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Value: payload,
		Headers: []kafka.Header{
			{Key: ReasonHeader, Value: []byte(reason)},
		},
	})
	if err != nil {
		p.logger.Error("死信转发失败",
			elog.FieldErr(err),
			elog.String("reason", reason))
		return err
	}
	p.logger.Info("消息已转入死信流", elog.String("reason", reason))
	return nil
}
