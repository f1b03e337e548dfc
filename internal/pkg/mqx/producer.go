package mqx

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Producer 对 confluent 生产者的窄接口
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// SyncProduce 同步发送一条消息并等待 broker 的投递回执
//
// 只有拿到成功回执才算发送成功，调用方据此决定是否提交消费进度。
func SyncProduce(ctx context.Context, producer Producer, msg *kafka.Message) error {
	deliveryChan := make(chan kafka.Event, 1)
	if err := producer.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("投递消息失败: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("未知的投递回执类型: %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("投递消息失败: %w", m.TopicPartition.Error)
		}
		return nil
	}
}
