package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/elog"

	"github.com/khetisetu/notification-event-service/internal/domain"
	"github.com/khetisetu/notification-event-service/internal/errs"
	"github.com/khetisetu/notification-event-service/internal/event/deadletter"
	"github.com/khetisetu/notification-event-service/internal/pkg/mqx"
	"github.com/khetisetu/notification-event-service/internal/pkg/retry"
	"github.com/khetisetu/notification-event-service/internal/service/dispatcher"
)

const defaultPollTimeout = time.Second

// Decoder 把原始消息体解析成投递请求
type Decoder func(payload []byte) (domain.DeliveryRequest, error)

// DecodeDirectEvent 直接投递事件的解码器
func DecodeDirectEvent(payload []byte) (domain.DeliveryRequest, error) {
	var evt DirectEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return domain.DeliveryRequest{}, fmt.Errorf("解析直接投递事件失败: %w", err)
	}
	return evt.ToDomain()
}

// DecodeRequestEvent 投递请求事件的解码器
func DecodeRequestEvent(payload []byte) (domain.DeliveryRequest, error) {
	var evt RequestEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return domain.DeliveryRequest{}, fmt.Errorf("解析投递请求事件失败: %w", err)
	}
	return evt.ToDomain()
}

// StreamConsumer 通知事件消费者
//
// 单实例串行消费，消费并发度由外层起多少个同组实例决定。
// 消费进度只在消息得到终态处理之后提交：发送成功、限流跳过、
// 重复事件以及成功转入死信流都算处理完成；死信转发失败时不提交，
// 让 broker 重投兜底，宁可重复也不丢消息。
type StreamConsumer struct {
	name     string
	consumer mqx.Consumer
	disp     dispatcher.Dispatcher
	dlq      *deadletter.Producer
	decode   Decoder
	retryCfg retry.Config
	logger   *elog.Component
}

func NewStreamConsumer(
	name string,
	consumer mqx.Consumer,
	disp dispatcher.Dispatcher,
	dlq *deadletter.Producer,
	decode Decoder,
	retryCfg retry.Config,
) *StreamConsumer {
	return &StreamConsumer{
		name:     name,
		consumer: consumer,
		disp:     disp,
		dlq:      dlq,
		decode:   decode,
		retryCfg: retryCfg,
		logger:   elog.DefaultLogger.With(elog.String("consumer", name)),
	}
}

func (c *StreamConsumer) Start(ctx context.Context) {
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
			if err := c.Consume(ctx); err != nil {
				c.logger.Error("消费通知事件失败", elog.FieldErr(err))
			}
		}
	}()
}

// Consume 处理至多一条消息
func (c *StreamConsumer) Consume(ctx context.Context) error {
	msg, err := c.consumer.ReadMessage(defaultPollTimeout)
	if err != nil {
		var kErr kafka.Error
		if errors.As(err, &kErr) && kErr.Code() == kafka.ErrTimedOut {
			return nil
		}
		return fmt.Errorf("获取消息失败: %w", err)
	}

	req, err := c.decode(msg.Value)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		// 解析不出来的消息重试没有意义，原样转入死信流
		c.logger.Warn("消息非法，转入死信流",
			elog.FieldErr(err),
			elog.String("topic", topicOf(msg)))
		return c.forwardAndCommit(ctx, msg, err.Error())
	}

	if err := c.processWithRetry(ctx, req); err != nil {
		return c.forwardAndCommit(ctx, msg, err.Error())
	}
	return c.commit(msg)
}

// processWithRetry 重试策略只对非致命错误生效，配置类错误立刻放弃
func (c *StreamConsumer) processWithRetry(ctx context.Context, req domain.DeliveryRequest) error {
	strategy, err := retry.NewRetry(c.retryCfg)
	if err != nil {
		return fmt.Errorf("构建重试策略失败: %w", err)
	}

	for {
		res, err := c.disp.Dispatch(ctx, req)
		if err == nil {
			c.logger.Info("事件处理完成",
				elog.String("eventID", req.EventID),
				elog.String("traceID", req.TraceID()),
				elog.String("outcome", string(res.Outcome)))
			return nil
		}
		if errs.IsFatal(err) {
			c.logger.Error("事件处理遇到致命错误，放弃重试",
				elog.FieldErr(err),
				elog.String("eventID", req.EventID))
			return err
		}

		interval, ok := strategy.Next()
		if !ok {
			c.logger.Error("事件重试次数耗尽",
				elog.FieldErr(err),
				elog.String("eventID", req.EventID))
			return err
		}

		c.logger.Warn("事件处理失败，等待重试",
			elog.FieldErr(err),
			elog.String("eventID", req.EventID),
			elog.String("interval", interval.String()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// forwardAndCommit 转发成功才提交
//
// 转发失败时必须把位点回退到这条消息：提交是累积语义，只是不提交本条
// 而继续消费，后续任意一条消息的提交都会连带覆盖它，消息就此丢失。
func (c *StreamConsumer) forwardAndCommit(ctx context.Context, msg *kafka.Message, reason string) error {
	if err := c.dlq.Forward(ctx, msg.Value, reason); err != nil {
		if seekErr := c.consumer.Seek(msg.TopicPartition, 0); seekErr != nil {
			c.logger.Error("回退消费位点失败",
				elog.FieldErr(seekErr),
				elog.Any("partition", msg.TopicPartition.Partition),
				elog.Any("offset", msg.TopicPartition.Offset))
		}
		return fmt.Errorf("死信转发失败，回退位点等待重试: %w", err)
	}
	return c.commit(msg)
}

func (c *StreamConsumer) commit(msg *kafka.Message) error {
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		c.logger.Warn("提交消费进度失败",
			elog.FieldErr(err),
			elog.Any("partition", msg.TopicPartition.Partition),
			elog.Any("offset", msg.TopicPartition.Offset))
		return err
	}
	return nil
}

func topicOf(msg *kafka.Message) string {
	if msg.TopicPartition.Topic == nil {
		return ""
	}
	return *msg.TopicPartition.Topic
}
