package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/reference"
	"github.com/caretrack/caretrack/internal/platform/calendar"
	"github.com/caretrack/caretrack/internal/platform/events"
	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/listing"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// ListSpec drives the appointment list view.
var ListSpec = listing.Spec[View]{
	Search: []func(View) string{
		func(v View) string { return v.PatientName },
		func(v View) string { return v.ProviderName },
		func(v View) string { return v.Reason },
		func(v View) string { return v.Type.Name },
	},
	Facets: map[string]func(View) string{
		"status":   func(v View) string { return v.Status },
		"type":     func(v View) string { return v.Type.Name },
		"provider": func(v View) string { return v.ProviderName },
	},
	Dates: map[string]func(View) time.Time{
		"date": View.StartTime,
	},
	Sorts: map[string]func(View) any{
		"date":     func(v View) any { return v.Start },
		"patient":  func(v View) any { return v.PatientName },
		"type":     func(v View) any { return v.Type.Name },
		"status":   func(v View) any { return v.Status },
		"provider": func(v View) any { return v.ProviderName },
	},
	DefaultSort: "date",
}

// Filter narrows an appointment fetch on the store side. From and To bound
// the start time inclusively.
type Filter struct {
	PatientID  *uuid.UUID
	ProviderID *uuid.UUID
	StatusID   *uuid.UUID
	TypeID     *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// Query orders by start time, earliest first.
func (f Filter) Query() store.Query {
	q := store.Query{OrderBy: []store.SortKey{{Field: "start", Direction: store.Asc}}}
	if f.From != nil {
		q.Where = append(q.Where, store.Gte("start", *f.From))
	}
	if f.To != nil {
		q.Where = append(q.Where, store.Lte("start", *f.To))
	}
	refs := []struct {
		field string
		id    *uuid.UUID
	}{
		{"patient_id", f.PatientID},
		{"provider_id", f.ProviderID},
		{"status_id", f.StatusID},
		{"type_id", f.TypeID},
	}
	for _, r := range refs {
		if r.id != nil {
			q.Where = append(q.Where, store.Eq(r.field, *r.id))
		}
	}
	return q
}

type Service struct {
	repo     Repository
	patients *patient.Service
	refs     *reference.Service
	events   events.Publisher
	list     *listing.Engine[View]
	logger   zerolog.Logger
	now      func() time.Time
	loc      *time.Location
}

func NewService(repo Repository, patients *patient.Service, refs *reference.Service, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.NewLogPublisher(logger)
	}
	return &Service{
		repo:     repo,
		patients: patients,
		refs:     refs,
		events:   pub,
		list:     listing.New(ListSpec),
		logger:   logger,
		now:      time.Now,
		loc:      time.UTC,
	}
}

// WithClock sets the clock and the zone that days and display times are
// computed in.
func (s *Service) WithClock(now func() time.Time, loc *time.Location) *Service {
	if now != nil {
		s.now = now
	}
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

// Patients exposes the patient service used for expansion and inline
// registration.
func (s *Service) Patients() *patient.Service { return s.patients }

func (s *Service) References() *reference.Service { return s.refs }

// lookup holds the reference data an appointment is expanded with.
type lookup struct {
	patients  map[uuid.UUID]*patient.Patient
	providers map[uuid.UUID]*reference.Provider
	types     map[uuid.UUID]*reference.Label
	statuses  map[uuid.UUID]*reference.Label
}

func index[T store.Entity](items []T) map[uuid.UUID]T {
	m := make(map[uuid.UUID]T, len(items))
	for _, it := range items {
		m[it.GetID()] = it
	}
	return m
}

// load fetches the patients referenced by appts and the three reference
// catalogs concurrently. The first failure cancels the rest.
func (s *Service) load(ctx context.Context, appts []*Appointment) (*lookup, error) {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, a := range appts {
		if !seen[a.PatientID] {
			seen[a.PatientID] = true
			ids = append(ids, a.PatientID)
		}
	}

	var (
		lk        lookup
		patients  []*patient.Patient
		providers []*reference.Provider
		types     []*reference.Label
		statuses  []*reference.Label
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patients, err = s.patients.ByIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		providers, err = s.refs.Providers.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = s.refs.Types.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		statuses, err = s.refs.Statuses.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	lk.patients = index(patients)
	lk.providers = index(providers)
	lk.types = index(types)
	lk.statuses = index(statuses)
	return &lk, nil
}

func (s *Service) view(a *Appointment, lk *lookup) View {
	v := View{
		Appointment:      a,
		PatientName:      UnknownPatient,
		Status:           DefaultStatus,
		Type:             TypeRef{Name: DefaultType, Color: DefaultColor},
		FormattedDate:    a.Start.In(s.loc).Format("2006-01-02"),
		FormattedTime:    a.Start.In(s.loc).Format("15:04"),
		FormattedEndTime: a.End.In(s.loc).Format("15:04"),
	}
	if p, ok := lk.patients[a.PatientID]; ok {
		v.PatientName = p.Name()
	}
	if a.ProviderID != nil {
		if p, ok := lk.providers[*a.ProviderID]; ok {
			v.ProviderName, v.ProviderColor = p.Name, p.Color
		}
	}
	if a.StatusID != nil {
		if st, ok := lk.statuses[*a.StatusID]; ok {
			v.Status = st.Name
		}
	}
	v.StatusColor = StatusColor(v.Status)
	if a.TypeID != nil {
		if t, ok := lk.types[*a.TypeID]; ok {
			v.Type = TypeRef{ID: a.TypeID, Name: t.Name, Color: t.Color}
		}
	}
	return v
}

// Expand resolves names and colors for each appointment and formats its
// times in the service's zone.
func (s *Service) Expand(ctx context.Context, appts []*Appointment) ([]View, error) {
	lk, err := s.load(ctx, appts)
	if err != nil {
		return nil, fmt.Errorf("expand appointments: %w", err)
	}
	out := make([]View, len(appts))
	for i, a := range appts {
		out[i] = s.view(a, lk)
	}
	return out, nil
}

// Find returns the expanded appointments matching f, earliest first.
func (s *Service) Find(ctx context.Context, f Filter) ([]View, error) {
	appts, _, err := s.repo.List(ctx, f.Query())
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return s.Expand(ctx, appts)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (View, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	views, err := s.Expand(ctx, []*Appointment{a})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// Page runs the list pipeline over the appointments matching f.
func (s *Service) Page(ctx context.Context, f Filter, st listing.State) (listing.Result[View], error) {
	if err := ListSpec.Validate(st); err != nil {
		return listing.Result[View]{}, err
	}
	views, err := s.Find(ctx, f)
	if err != nil {
		return listing.Result[View]{}, err
	}
	return s.list.WithClock(s.clock).Apply(views, st), nil
}

// Groups buckets the pipeline output by start day, ordered the way the
// state sorts dates.
func (s *Service) Groups(ctx context.Context, f Filter, st listing.State) ([]calendar.Group[View], error) {
	if err := ListSpec.Validate(st); err != nil {
		return nil, err
	}
	views, err := s.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := s.list.WithClock(s.clock).Filter(views, st)
	dir := st.Direction
	if dir == "" {
		dir = store.Asc
	}
	return calendar.GroupByDay(rows, dir, s.loc), nil
}

func (s *Service) clock() time.Time { return s.now().In(s.loc) }

// Calendar builds the month grid for month ("2006-01", empty for the
// current month). Only appointments starting inside the grid are fetched.
func (s *Service) Calendar(ctx context.Context, month string, f Filter) (calendar.Month[View], error) {
	anchor, err := calendar.ParseMonth(month, s.clock(), s.loc)
	if err != nil {
		return calendar.Month[View]{}, fmt.Errorf("%w: month %q", store.ErrUnknownField, month)
	}
	grid := calendar.BuildMonthGrid(anchor)
	from := grid[0]
	to := grid[len(grid)-1].AddDate(0, 0, 1).Add(-time.Nanosecond)
	f.From, f.To = &from, &to
	views, err := s.Find(ctx, f)
	if err != nil {
		return calendar.Month[View]{}, err
	}
	return calendar.MonthView(anchor, views, s.clock()), nil
}

// Day lists every appointment starting on date ("2006-01-02", empty for
// today).
func (s *Service) Day(ctx context.Context, date string, f Filter) (calendar.Day[View], error) {
	day := listing.StartOfDay(s.clock())
	if date != "" {
		d, err := time.ParseInLocation(calendar.DayKeyLayout, date, s.loc)
		if err != nil {
			return calendar.Day[View]{}, fmt.Errorf("%w: date %q", store.ErrUnknownField, date)
		}
		day = d
	}
	to := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	f.From, f.To = &day, &to
	views, err := s.Find(ctx, f)
	if err != nil {
		return calendar.Day[View]{}, err
	}
	return calendar.SelectDay(day, views), nil
}

// Upcoming returns the unexpanded appointments starting in [from, to].
func (s *Service) Upcoming(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	appts, _, err := s.repo.List(ctx, Filter{From: &from, To: &to}.Query())
	if err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	return appts, nil
}

// Validate checks an appointment form without saving it.
func (s *Service) Validate(v form.Values) error {
	_, err := FromForm(v, nil)
	return err
}

func (s *Service) Create(ctx context.Context, v form.Values) (View, error) {
	a, err := FromForm(v, nil)
	if err != nil {
		return View{}, err
	}
	return s.create(ctx, a)
}

func (s *Service) create(ctx context.Context, a *Appointment) (View, error) {
	p, err := s.patients.Get(ctx, a.PatientID)
	if errors.Is(err, store.ErrNotFound) {
		return View{}, form.Errors{"patient_id": "Patient not found"}
	}
	if err != nil {
		return View{}, fmt.Errorf("load patient: %w", err)
	}
	if a.Name == "" {
		a.Name = "Appointment for " + p.Name()
	}
	if a.StatusID == nil {
		st, err := s.refs.StatusByName(ctx, DefaultStatus)
		switch {
		case err == nil:
			a.StatusID = &st.ID
		case !errors.Is(err, store.ErrNotFound):
			return View{}, fmt.Errorf("default status: %w", err)
		}
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return View{}, fmt.Errorf("create appointment: %w", err)
	}
	s.publish(ctx, events.AppointmentCreated, a)
	return s.Get(ctx, a.ID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, v form.Values) (View, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	a, err := FromForm(v, existing)
	if err != nil {
		return View{}, err
	}
	if a.PatientID != existing.PatientID {
		_, err := s.patients.Get(ctx, a.PatientID)
		if errors.Is(err, store.ErrNotFound) {
			return View{}, form.Errors{"patient_id": "Patient not found"}
		}
		if err != nil {
			return View{}, fmt.Errorf("load patient: %w", err)
		}
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return View{}, fmt.Errorf("update appointment: %w", err)
	}
	s.publish(ctx, events.AppointmentUpdated, a)
	return s.Get(ctx, a.ID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}
	if ok {
		s.publish(ctx, events.AppointmentDeleted, a)
	}
	return ok, nil
}

// publish reports a lifecycle event. The write has already succeeded, so a
// delivery failure is logged and not returned.
func (s *Service) publish(ctx context.Context, typ events.EventType, a *Appointment) {
	err := s.events.Publish(ctx, events.AppointmentEvent{
		Type:          typ,
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		ProviderID:    a.ProviderID,
		Start:         a.Start,
		Reason:        a.Reason,
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("type", string(typ)).Str("appointment_id", a.ID.String()).Msg("publish appointment event")
	}
}
