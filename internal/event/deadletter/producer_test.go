//go:build unit

package deadletter

import (
	"context"
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	produceErr  error
	deliveryErr error
	produced    []*kafka.Message
}

func (f *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	if f.produceErr != nil {
		return f.produceErr
	}
	f.produced = append(f.produced, msg)
	out := *msg
	out.TopicPartition.Error = f.deliveryErr
	go func() { deliveryChan <- &out }()
	return nil
}

func TestForward(t *testing.T) {
	t.Parallel()

	t.Run("原样转发载荷并带上原因头", func(t *testing.T) {
		fp := &fakeProducer{}
		p := NewProducer(fp)

		require.NoError(t, p.Forward(context.Background(), []byte(`{"broken":`), "解析失败"))
		require.Len(t, fp.produced, 1)
		msg := fp.produced[0]
		assert.Equal(t, Topic, *msg.TopicPartition.Topic)
		assert.Equal(t, []byte(`{"broken":`), msg.Value)
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, ReasonHeader, msg.Headers[0].Key)
		assert.Equal(t, []byte("解析失败"), msg.Headers[0].Value)
	})

	t.Run("投递确认失败时报错", func(t *testing.T) {
		fp := &fakeProducer{deliveryErr: errors.New("broker down")}
		p := NewProducer(fp)

		assert.Error(t, p.Forward(context.Background(), []byte("x"), "重试耗尽"))
	})

	t.Run("入队失败时报错", func(t *testing.T) {
		fp := &fakeProducer{produceErr: errors.New("queue full")}
		p := NewProducer(fp)

		assert.Error(t, p.Forward(context.Background(), []byte("x"), "重试耗尽"))
	})
}
