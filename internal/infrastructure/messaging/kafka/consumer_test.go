package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/internal/config"
)

// mockKafkaReader serves queued messages, then blocks until cancelled.
type mockKafkaReader struct {
	queue     chan kafka.Message
	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newMockReader(msgs ...kafka.Message) *mockKafkaReader {
	r := &mockKafkaReader{queue: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.queue <- m
	}
	return r
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-m.queue:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (m *mockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.committed = append(m.committed, msg.Offset)
	}
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockKafkaReader) commits() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.committed...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	msgs   []*ProducerMessage
	closed bool
}

func (p *recordingPublisher) Publish(ctx context.Context, msg *ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func (p *recordingPublisher) published() []*ProducerMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*ProducerMessage(nil), p.msgs...)
}

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "molsieve-test",
		Topics:  []string{TopicBatchRequested},
		RetryConfig: RetryConfig{
			MaxRetries:      2,
			RetryBackoff:    time.Millisecond,
			MaxRetryBackoff: 2 * time.Millisecond,
			DeadLetterTopic: TopicDeadLetter,
		},
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	assert.NoError(t, ValidateConsumerConfig(testConsumerConfig()))

	cfg := testConsumerConfig()
	cfg.Brokers = nil
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = testConsumerConfig()
	cfg.GroupID = ""
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = testConsumerConfig()
	cfg.Topics = nil
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = testConsumerConfig()
	cfg.AutoOffsetReset = "middle"
	assert.Error(t, ValidateConsumerConfig(cfg))
}

func TestConsumerConfigFrom(t *testing.T) {
	cfg := ConsumerConfigFrom(config.KafkaConfig{
		Brokers:         []string{"k:9092"},
		ConsumerGroup:   "g",
		MaxRetries:      3,
		DeadLetterTopic: "dlq",
	}, TopicBatchRequested)

	assert.Equal(t, "g", cfg.GroupID)
	assert.Equal(t, []string{TopicBatchRequested}, cfg.Topics)
	assert.Equal(t, 3, cfg.RetryConfig.MaxRetries)
	assert.Equal(t, "dlq", cfg.RetryConfig.DeadLetterTopic)
}

func TestConsumer_DispatchesAndCommits(t *testing.T) {
	reader := newMockReader(
		kafka.Message{Topic: TopicBatchRequested, Offset: 1, Value: []byte("a"),
			Headers: []kafka.Header{{Key: "event_type", Value: []byte("x")}}},
		kafka.Message{Topic: TopicBatchRequested, Offset: 2, Value: []byte("b")},
	)
	c := NewConsumerWithReader(reader, nil, testConsumerConfig(), nil)

	var seen []string
	var mu sync.Mutex
	c.Subscribe(TopicBatchRequested, func(ctx context.Context, msg *Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(msg.Value)+":"+msg.Header("event_type"))
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, []string{"a:x", "b:"}, seen)
	assert.Equal(t, []int64{1, 2}, reader.commits())
	assert.True(t, reader.closed)
	assert.Equal(t, int64(2), c.Stats().Processed)
}

func TestConsumer_UnknownTopicIsCommitted(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: "other", Offset: 7})
	c := NewConsumerWithReader(reader, nil, testConsumerConfig(), nil)

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.Zero(t, c.Stats().Processed)
}

func TestConsumer_RetriesThenSucceeds(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: TopicBatchRequested, Offset: 3, Value: []byte("x")})
	dlq := &recordingPublisher{}
	c := NewConsumerWithReader(reader, dlq, testConsumerConfig(), nil)

	var calls atomic.Int32
	c.Subscribe(TopicBatchRequested, func(ctx context.Context, msg *Message) error {
		if calls.Add(1) < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, dlq.published())
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Retried)
	assert.Equal(t, int64(1), stats.Processed)
}

func TestConsumer_ExhaustedRetriesGoToDeadLetter(t *testing.T) {
	reader := newMockReader(kafka.Message{
		Topic: TopicBatchRequested, Offset: 9, Key: []byte("job-9"), Value: []byte("{}"),
		Headers: []kafka.Header{{Key: "trace_id", Value: []byte("t-1")}},
	})
	dlq := &recordingPublisher{}
	c := NewConsumerWithReader(reader, dlq, testConsumerConfig(), nil)

	var calls atomic.Int32
	c.Subscribe(TopicBatchRequested, func(ctx context.Context, msg *Message) error {
		calls.Add(1)
		return errors.New("bad payload")
	})

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(3), calls.Load())
	pub := dlq.published()
	require.Len(t, pub, 1)
	assert.Equal(t, TopicDeadLetter, pub[0].Topic)
	assert.Equal(t, "job-9", string(pub[0].Key))
	assert.Equal(t, TopicBatchRequested, pub[0].Headers[HeaderOriginalTopic])
	assert.Equal(t, "bad payload", pub[0].Headers[HeaderErrorMessage])
	assert.Equal(t, "3", pub[0].Headers[HeaderAttempts])
	assert.Equal(t, "t-1", pub[0].Headers["trace_id"])
	assert.True(t, dlq.closed)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.DeadLettered)
}

func TestConsumer_CloseWithoutStart(t *testing.T) {
	c := NewConsumerWithReader(newMockReader(), nil, testConsumerConfig(), nil)
	assert.NoError(t, c.Close())
}

//Personal.AI order the ending
