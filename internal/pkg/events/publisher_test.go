package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, source: "payroll-engine"}

	err := p.Publish(context.Background(), TopicLeaveDecided, "emp-1", "leave.approved", map[string]string{"id": "app-1"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, TopicLeaveDecided, msg.Topic)
	assert.Equal(t, []byte("emp-1"), msg.Key)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("leave.approved"), msg.Headers[0].Value)

	var env struct {
		EventType string            `json:"event_type"`
		Data      map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "leave.approved", env.EventType)
	assert.Equal(t, "app-1", env.Data["id"])
}

func TestKafkaPublisher_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}}
	err := p.Publish(context.Background(), TopicPayrollGenerated, "emp-1", "payroll.generated", nil)
	assert.ErrorIs(t, err, boom)
}
