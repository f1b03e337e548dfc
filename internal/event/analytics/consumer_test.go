//go:build unit

package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	mu        sync.Mutex
	messages  []*kafka.Message
	committed []*kafka.Message
	closed    bool
}

func (f *fakeConsumer) ReadMessage(_ time.Duration) (*kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return nil, kafka.NewError(kafka.ErrTimedOut, "timed out", false)
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return msg, nil
}

func (f *fakeConsumer) CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, m)
	return nil, nil
}

func (f *fakeConsumer) Seek(_ kafka.TopicPartition, _ int) error { return nil }

func (f *fakeConsumer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConsumer) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestConsumeCommitsEvent(t *testing.T) {
	t.Parallel()

	topic := EventName
	kc := &fakeConsumer{messages: []*kafka.Message{{
		TopicPartition: kafka.TopicPartition{Topic: &topic},
		Value:          []byte(`{"eventId":"evt-1","userId":"u1","type":"EMAIL","status":"SENT"}`),
	}}}
	c := NewEventConsumer(kc)

	require.NoError(t, c.consume(context.Background()))
	assert.Len(t, kc.committed, 1)
}

func TestConsumeCommitsMalformedEvent(t *testing.T) {
	t.Parallel()

	topic := EventName
	kc := &fakeConsumer{messages: []*kafka.Message{{
		TopicPartition: kafka.TopicPartition{Topic: &topic},
		Value:          []byte("not-json"),
	}}}
	c := NewEventConsumer(kc)

	// 旁路消费，解析失败也直接提交跳过
	require.NoError(t, c.consume(context.Background()))
	assert.Len(t, kc.committed, 1)
}

func TestStartClosesConsumerOnShutdown(t *testing.T) {
	t.Parallel()

	kc := &fakeConsumer{}
	c := NewEventConsumer(kc)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	require.Eventually(t, kc.isClosed, 3*time.Second, 10*time.Millisecond)
}
