// Package events publishes appointment lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives every appointment event.
const DefaultTopic = "appointment_events"

type EventType string

const (
	AppointmentCreated  EventType = "appointment.created"
	AppointmentUpdated  EventType = "appointment.updated"
	AppointmentDeleted  EventType = "appointment.deleted"
	AppointmentReminder EventType = "appointment.reminder"
)

type AppointmentEvent struct {
	Type          EventType  `json:"type"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	ProviderID    *uuid.UUID `json:"provider_id,omitempty"`
	Start         time.Time  `json:"start"`
	Reason        string     `json:"reason,omitempty"`
	Message       string     `json:"message,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e AppointmentEvent) error
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON events keyed by appointment id.
type KafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		// Publish writes one message synchronously; flush it right away.
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e AppointmentEvent) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{Key: []byte(e.AppointmentID.String()), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("produce %s: %w", e.Type, err)
	}
	p.logger.Debug().Str("type", string(e.Type)).Str("appointment_id", e.AppointmentID.String()).Msg("event published")
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e AppointmentEvent) error {
	p.logger.Info().
		Str("type", string(e.Type)).
		Str("appointment_id", e.AppointmentID.String()).
		Time("start", e.Start).
		Msg("appointment event")
	return nil
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []AppointmentEvent
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e AppointmentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []AppointmentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AppointmentEvent, len(r.events))
	copy(out, r.events)
	return out
}
