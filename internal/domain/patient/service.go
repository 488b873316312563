package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/listing"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// ListSpec drives the patient table: search over name, email and phone,
// status and gender facets and a last-visit date facet.
var ListSpec = listing.Spec[*Patient]{
	Search: []func(*Patient) string{
		(*Patient).Name,
		func(p *Patient) string { return p.Email },
		func(p *Patient) string { return p.Phone },
	},
	Facets: map[string]func(*Patient) string{
		"status": func(p *Patient) string { return p.Status },
		"gender": func(p *Patient) string { return p.Gender },
	},
	Dates: map[string]func(*Patient) time.Time{
		"last_visit": func(p *Patient) time.Time {
			if p.LastVisit == nil {
				return time.Time{}
			}
			return *p.LastVisit
		},
	},
	Sorts: map[string]func(*Patient) any{
		"name":       func(p *Patient) any { return p.Name() },
		"first_name": func(p *Patient) any { return p.FirstName },
		"last_name":  func(p *Patient) any { return p.LastName },
		"dob":        func(p *Patient) any { return p.DOB },
		"last_visit": func(p *Patient) any { return p.LastVisit },
		"status":     func(p *Patient) any { return p.Status },
		"created_at": func(p *Patient) any { return p.CreatedAt },
	},
	DefaultSort: "last_name",
}

type Service struct {
	repo   Repository
	active *ActiveStore
	list   *listing.Engine[*Patient]
	now    func() time.Time
}

func NewService(repo Repository, active *ActiveStore) *Service {
	if active == nil {
		active = NewActiveStore()
	}
	return &Service{repo: repo, active: active, list: listing.New(ListSpec), now: time.Now}
}

// Active exposes the session selection store.
func (s *Service) Active() *ActiveStore { return s.active }

// Validate checks a registration form without saving it.
func (s *Service) Validate(v form.Values) error {
	return Schema.Validate(v)
}

func (s *Service) Create(ctx context.Context, v form.Values) (*Patient, error) {
	return s.CreateWith(ctx, Schema, v)
}

// CreateWith registers a patient from a form of the given schema. A new
// patient's last visit is today.
func (s *Service) CreateWith(ctx context.Context, schema form.Schema, v form.Values) (*Patient, error) {
	p, err := FromForm(schema, v, nil)
	if err != nil {
		return nil, err
	}
	if p.LastVisit == nil {
		p.LastVisit = today(s.now())
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, v form.Values) (*Patient, error) {
	return s.UpdateWith(ctx, Schema, id, v)
}

// UpdateWith replaces the submitted fields of an existing patient and
// refreshes any session that holds it as active or recently viewed.
func (s *Service) UpdateWith(ctx context.Context, schema form.Schema, id uuid.UUID, v form.Values) (*Patient, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := FromForm(schema, v, existing)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	s.active.Refresh(p.Summary())
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	if ok {
		s.active.Forget(id)
	}
	return ok, nil
}

// SearchParams are the store-side filters of the patient picker.
type SearchParams struct {
	Query  string
	Status string
	Gender string
	Limit  int
	Offset int
}

// SearchQuery matches the term against first name, last name, email or
// phone and the status and gender exactly, ordered by last name.
func SearchQuery(p SearchParams) store.Query {
	q := store.Query{
		OrderBy: []store.SortKey{{Field: "last_name", Direction: store.Asc}, {Field: "first_name", Direction: store.Asc}},
		Limit:   p.Limit,
		Offset:  p.Offset,
	}
	if term := strings.TrimSpace(p.Query); term != "" {
		q.WhereGroups = append(q.WhereGroups, store.AnyOf(
			store.Like("first_name", term),
			store.Like("last_name", term),
			store.Like("email", term),
			store.Like("phone", term),
		))
	}
	if p.Status != "" && p.Status != listing.All {
		q.Where = append(q.Where, store.Eq("status", p.Status))
	}
	if p.Gender != "" && p.Gender != listing.All {
		q.Where = append(q.Where, store.Eq("gender", p.Gender))
	}
	return q
}

func (s *Service) Search(ctx context.Context, p SearchParams) ([]*Patient, int, error) {
	return s.repo.List(ctx, SearchQuery(p))
}

// All returns every patient in store order.
func (s *Service) All(ctx context.Context) ([]*Patient, error) {
	items, _, err := s.repo.List(ctx, store.Query{})
	return items, err
}

// ByIDs loads the patients with the given ids. Missing ids are skipped.
func (s *Service) ByIDs(ctx context.Context, ids []uuid.UUID) ([]*Patient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	items, _, err := s.repo.List(ctx, store.Query{Where: []store.Condition{store.Eq("id", vals...)}})
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	return items, nil
}

// List runs the table pipeline over every patient.
func (s *Service) List(ctx context.Context, st listing.State) (listing.Result[*Patient], error) {
	if err := ListSpec.Validate(st); err != nil {
		return listing.Result[*Patient]{}, err
	}
	items, err := s.All(ctx)
	if err != nil {
		return listing.Result[*Patient]{}, fmt.Errorf("list patients: %w", err)
	}
	return s.list.WithClock(s.now).Apply(items, st), nil
}

// Select makes the patient active for the session.
func (s *Service) Select(ctx context.Context, session string, id uuid.UUID) (Selection, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Selection{}, err
	}
	return s.active.Set(session, p.Summary()), nil
}
