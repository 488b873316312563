// Package reminder publishes a reminder event for each of the day's
// appointments on a cron schedule.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/domain/appointment"
	"github.com/caretrack/caretrack/internal/platform/events"
)

// DefaultSchedule runs the job every morning at eight.
const DefaultSchedule = "0 8 * * *"

// DefaultTemplate is the reminder text. Placeholders are {{key}}.
const DefaultTemplate = "Dear {{patient_name}}, this is a reminder of your {{type}} appointment on {{date}} at {{time}} with {{provider}}."

// Appointments in these statuses get no reminder.
var skipStatuses = map[string]bool{
	"Cancelled": true,
	"Completed": true,
	"No-show":   true,
}

// Source is the part of the appointment service the job reads.
type Source interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]*appointment.Appointment, error)
	Expand(ctx context.Context, appts []*appointment.Appointment) ([]appointment.View, error)
	Location() *time.Location
}

type Reminder struct {
	src      Source
	pub      events.Publisher
	logger   zerolog.Logger
	now      func() time.Time
	template string

	mu   sync.Mutex
	cron *cron.Cron
}

func New(src Source, pub events.Publisher, logger zerolog.Logger) *Reminder {
	return &Reminder{src: src, pub: pub, logger: logger, now: time.Now, template: DefaultTemplate}
}

func (r *Reminder) WithClock(now func() time.Time) *Reminder {
	r.now = now
	return r
}

func (r *Reminder) WithTemplate(tpl string) *Reminder {
	if tpl != "" {
		r.template = tpl
	}
	return r
}

// RunOnce publishes reminders for today's appointments and returns how many
// were sent. A failed publish is logged and the rest still go out.
func (r *Reminder) RunOnce(ctx context.Context) (int, error) {
	loc := r.src.Location()
	now := r.now().In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)

	appts, err := r.src.Upcoming(ctx, from, to)
	if err != nil {
		return 0, err
	}
	views, err := r.src.Expand(ctx, appts)
	if err != nil {
		return 0, fmt.Errorf("expand reminders: %w", err)
	}

	sent := 0
	for _, v := range views {
		if skipStatuses[v.Status] {
			continue
		}
		err := r.pub.Publish(ctx, events.AppointmentEvent{
			Type:          events.AppointmentReminder,
			AppointmentID: v.ID,
			PatientID:     v.PatientID,
			ProviderID:    v.ProviderID,
			Start:         v.Start,
			Reason:        v.Reason,
			Message:       Render(r.template, data(v)),
			OccurredAt:    now.UTC(),
		})
		if err != nil {
			r.logger.Warn().Err(err).Str("appointment_id", v.ID.String()).Msg("failed to send reminder")
			continue
		}
		sent++
	}
	r.logger.Info().Int("sent", sent).Int("due", len(views)).Msg("daily appointment reminders sent")
	return sent, nil
}

func data(v appointment.View) map[string]string {
	provider := v.ProviderName
	if provider == "" {
		provider = "your provider"
	}
	return map[string]string{
		"patient_name": v.PatientName,
		"type":         v.Type.Name,
		"date":         v.FormattedDate,
		"time":         v.FormattedTime,
		"provider":     provider,
		"reason":       v.Reason,
	}
}

// Render replaces {{key}} placeholders in tpl. Unknown placeholders are left
// as they are.
func Render(tpl string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// ValidateSchedule reports whether spec is a standard five-field cron spec.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return nil
}

// Start runs the job on spec in the appointment time zone.
func (r *Reminder) Start(spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	c := cron.New(cron.WithLocation(r.src.Location()))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("reminder run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminders %q: %w", spec, err)
	}
	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()
	c.Start()
	r.logger.Info().Str("schedule", spec).Msg("reminder job scheduled")
	return nil
}

// Stop halts the schedule. The returned context is done once a running job
// has finished.
func (r *Reminder) Stop() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return r.cron.Stop()
}
