package ioc

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/econf"
)

type kafkaConfig struct {
	BootstrapServers string `yaml:"bootstrapServers"`
}

func loadKafkaConfig() kafkaConfig {
	var cfg kafkaConfig
	if err := econf.UnmarshalKey("kafka", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

// InitConsumer 创建一个订阅了 topic 的消费者
//
// 关闭自动提交，消费进度由消费端在消息得到终态处理后手动提交。
func InitConsumer(groupID, topic string) *kafka.Consumer {
	cfg := loadKafkaConfig()
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.BootstrapServers,
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		panic(fmt.Sprintf("创建消费者失败: %v", err))
	}
	if err := consumer.SubscribeTopics([]string{topic}, nil); err != nil {
		panic(fmt.Sprintf("订阅 topic 失败: %v", err))
	}
	return consumer
}

func InitProducer(id string) *kafka.Producer {
	cfg := loadKafkaConfig()
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"client.id":         id,
	})
	if err != nil {
		panic(fmt.Sprintf("创建生产者失败: %v", err))
	}
	return producer
}
