package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, logger: zerolog.Nop()}
	id := uuid.New()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := p.Publish(context.Background(), AppointmentEvent{Type: AppointmentCreated, AppointmentID: id, Start: start}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != id.String() {
		t.Errorf("expected key %s, got %s", id, w.msgs[0].Key)
	}
	var got AppointmentEvent
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != AppointmentCreated || !got.Start.Equal(start) || got.OccurredAt.IsZero() {
		t.Errorf("unexpected event %+v", got)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Error("expected writer to be closed")
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &KafkaPublisher{writer: w, logger: zerolog.Nop()}
	if err := p.Publish(context.Background(), AppointmentEvent{Type: AppointmentDeleted}); err == nil {
		t.Error("expected error")
	}
}

func TestNewKafkaPublisher_DefaultTopic(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "", zerolog.Nop())
	w, ok := p.writer.(*kafka.Writer)
	if !ok {
		t.Fatal("expected *kafka.Writer")
	}
	if w.Topic != DefaultTopic {
		t.Errorf("expected topic %s, got %s", DefaultTopic, w.Topic)
	}
}

func TestNewKafkaPublisher_FlushesEachMessage(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "appointments", zerolog.Nop())
	w := p.writer.(*kafka.Writer)
	if w.BatchSize != 1 {
		t.Errorf("expected batch size 1, got %d", w.BatchSize)
	}
	if w.BatchTimeout <= 0 || w.BatchTimeout > 50*time.Millisecond {
		t.Errorf("expected a batch timeout of a few milliseconds, got %s", w.BatchTimeout)
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_ = r.Publish(context.Background(), AppointmentEvent{Type: AppointmentUpdated})
	events := r.Events()
	if len(events) != 1 || events[0].Type != AppointmentUpdated {
		t.Errorf("unexpected events %v", events)
	}
	r.Err = errors.New("fail")
	if err := r.Publish(context.Background(), AppointmentEvent{}); err == nil {
		t.Error("expected configured error")
	}
}
