// Package kafka carries MolSieve events and batch jobs over Kafka using
// segmentio/kafka-go.  The producer publishes EventEnvelope payloads; the
// consumer dispatches fetched messages to per-topic handlers with retry and
// dead-letter support.
package kafka

import (
	"context"
	"time"
)

// Message is a fetched record handed to a MessageHandler.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Header returns the named header or "".
func (m *Message) Header(key string) string {
	if m == nil || m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// ProducerMessage is an outbound record.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one message.  A returned error triggers the
// consumer's retry policy.
type MessageHandler func(ctx context.Context, msg *Message) error

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int
	Configs           map[string]string
}

// Publisher is the subset of Producer used by the consumer for dead letters.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
	Close() error
}

//Personal.AI order the ending
