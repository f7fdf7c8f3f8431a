package publish

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaSink struct {
	writer messageWriter
}

// NewKafka returns a sink writing keyed messages to a topic. Messages with
// the same key (the regulator name) land on the same partition.
func NewKafka(brokers []string, topic string) (Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("publish: kafka needs at least one broker")
	}
	if topic == "" {
		return nil, errors.New("publish: kafka topic must not be empty")
	}
	return &kafkaSink{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}}, nil
}

func (k *kafkaSink) Send(ctx context.Context, key string, payload []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload})
}

func (k *kafkaSink) Close() error { return k.writer.Close() }
