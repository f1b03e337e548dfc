package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/khetisetu/notification-event-service/internal/pkg/mqx"
)

type Producer interface {
	Produce(ctx context.Context, evt StatusEvent) error
}

type producer struct {
	producer mqx.Producer
	topic    string
}

func NewProducer(p mqx.Producer) Producer {
	return &producer{
		producer: p,
		topic:    EventName,
	}
}

func (p *producer) Produce(ctx context.Context, evt StatusEvent) error {
	evtBytes, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化分析事件失败: %w", err)
	}
	return mqx.SyncProduce(ctx, p.producer, &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(evt.EventID),
		Value: evtBytes,
	})
}
