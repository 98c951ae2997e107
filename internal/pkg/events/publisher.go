package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	TopicLeaveDecided     = "hr.leave.decided.v1"
	TopicAttendanceLocked = "hr.attendance.locked.v1"
	TopicPayrollGenerated = "hr.payroll.generated.v1"
)

// Publisher emits domain events after a unit of work has committed.
type Publisher interface {
	Publish(ctx context.Context, topic, key, eventType string, data any) error
	Close() error
}

type envelope struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	source string
}

// NewKafkaPublisher writes to brokers, partitioning by aggregate key so that
// events of one employee stay ordered.
func NewKafkaPublisher(brokers []string, source string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
		source: source,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key, eventType string, data any) error {
	payload, err := json.Marshal(envelope{
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "source", Value: []byte(p.source)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, string, any) error { return nil }
func (NoopPublisher) Close() error                                                { return nil }
