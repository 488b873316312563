package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/domain/appointment"
	"github.com/caretrack/caretrack/internal/platform/events"
)

type fakeSource struct {
	views     []appointment.View
	err       error
	from, to  time.Time
	expandErr error
}

func (f *fakeSource) Upcoming(_ context.Context, from, to time.Time) ([]*appointment.Appointment, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*appointment.Appointment, len(f.views))
	for i, v := range f.views {
		out[i] = v.Appointment
	}
	return out, nil
}

func (f *fakeSource) Expand(_ context.Context, _ []*appointment.Appointment) ([]appointment.View, error) {
	return f.views, f.expandErr
}

func (f *fakeSource) Location() *time.Location { return time.UTC }

func view(patient, status string, start time.Time) appointment.View {
	return appointment.View{
		Appointment:   &appointment.Appointment{ID: uuid.New(), PatientID: uuid.New(), Start: start, End: start.Add(30 * time.Minute)},
		PatientName:   patient,
		ProviderName:  "Dr. Smith",
		Status:        status,
		Type:          appointment.TypeRef{Name: "Check-up"},
		FormattedDate: start.Format("Jan 2, 2006"),
		FormattedTime: start.Format("3:04 PM"),
	}
}

var morning = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func TestRunOnce(t *testing.T) {
	src := &fakeSource{views: []appointment.View{
		view("Jane Doe", "Scheduled", morning.Add(2*time.Hour)),
		view("John Roe", "Cancelled", morning.Add(3*time.Hour)),
		view("Ann Lee", "Confirmed", morning.Add(5*time.Hour)),
	}}
	rec := &events.Recorder{}
	r := New(src, rec, zerolog.Nop()).WithClock(func() time.Time { return morning })

	sent, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 || len(rec.Events()) != 2 {
		t.Fatalf("expected 2 reminders, got %d", sent)
	}
	if !src.from.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || src.to.Day() != 1 {
		t.Errorf("unexpected window %v - %v", src.from, src.to)
	}
	e := rec.Events()[0]
	if e.Type != events.AppointmentReminder || e.AppointmentID != src.views[0].ID {
		t.Errorf("unexpected event %+v", e)
	}
	want := "Dear Jane Doe, this is a reminder of your Check-up appointment on Mar 1, 2024 at 10:00 AM with Dr. Smith."
	if e.Message != want {
		t.Errorf("unexpected message %q", e.Message)
	}
}

func TestRunOnce_PublishFailure(t *testing.T) {
	src := &fakeSource{views: []appointment.View{view("Jane Doe", "Scheduled", morning)}}
	r := New(src, &events.Recorder{Err: errors.New("broker down")}, zerolog.Nop()).WithClock(func() time.Time { return morning })
	sent, err := r.RunOnce(context.Background())
	if err != nil || sent != 0 {
		t.Errorf("expected a logged failure and no reminders, got %d %v", sent, err)
	}
}

func TestRunOnce_SourceErrors(t *testing.T) {
	for name, src := range map[string]*fakeSource{
		"upcoming": {err: errors.New("db down")},
		"expand":   {expandErr: errors.New("lookup failed")},
	} {
		t.Run(name, func(t *testing.T) {
			r := New(src, &events.Recorder{}, zerolog.Nop())
			if _, err := r.RunOnce(context.Background()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRender(t *testing.T) {
	got := Render("Hi {{name}}, see {{who}} {{later}}", map[string]string{"name": "Jane", "who": "Dr. Lee"})
	if got != "Hi Jane, see Dr. Lee {{later}}" {
		t.Errorf("unexpected render %q", got)
	}
}

func TestSchedule(t *testing.T) {
	if err := ValidateSchedule(DefaultSchedule); err != nil {
		t.Errorf("default schedule rejected: %v", err)
	}
	if err := ValidateSchedule("every morning"); err == nil {
		t.Error("expected an invalid schedule error")
	}

	r := New(&fakeSource{}, &events.Recorder{}, zerolog.Nop())
	if err := r.Start("bad spec"); err == nil || !strings.Contains(err.Error(), "bad spec") {
		t.Errorf("expected a schedule error, got %v", err)
	}
	if err := r.Start(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-r.Stop().Done():
	case <-time.After(time.Second):
		t.Error("expected Stop to finish")
	}
}
