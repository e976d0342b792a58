package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const kafkaBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes events to a single topic, keyed by the aggregate id
// so all events of one booking land on the same partition.
// Writes are asynchronous: Publish only enqueues, delivery failures are logged.
type KafkaPublisher struct {
	w   *kafka.Writer
	log *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{log: log.Named("events.kafka")}
	p.w = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           kafkaBatchTimeout,
		Completion:             p.completed,
	}
	return p
}

func (p *KafkaPublisher) completed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		p.log.Error("kafka delivery failed",
			zap.String("key", string(m.Key)),
			zap.String("event_type", headerValue(m.Headers, "event_type")),
			zap.Error(err),
		)
	}
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
