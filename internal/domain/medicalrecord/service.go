package medicalrecord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/listing"
	"github.com/caretrack/caretrack/internal/platform/store"
	"github.com/caretrack/caretrack/internal/platform/timeline"
)

// Schema is the medical record form.
var Schema = form.Schema{
	{Name: "patient_id", Label: "Patient", Type: form.Text, Required: true},
	{Name: "type", Label: "Record type", Type: form.Picklist, Required: true, Options: Types},
	{Name: "title", Label: "Title", Type: form.Text, Required: true},
	{Name: "date", Label: "Date", Type: form.Date, Required: true},
	{Name: "provider", Label: "Provider", Type: form.Text},
	{Name: "description", Label: "Description", Type: form.MultilineText},
	{Name: "notes", Label: "Notes", Type: form.MultilineText},
	{Name: "results", Label: "Results", Type: form.MultilineText},
	{Name: "dosage", Label: "Dosage", Type: form.Text},
	{Name: "frequency", Label: "Frequency", Type: form.Text},
	{Name: "duration", Label: "Duration", Type: form.Text},
	{Name: "tags", Label: "Tags", Type: form.Tag},
}

// FromForm validates v and builds a record. Results are kept only for lab
// and imaging records and dosage fields only for medications.
func FromForm(v form.Values, existing *MedicalRecord) (*MedicalRecord, error) {
	if err := Schema.Validate(v); err != nil {
		return nil, err
	}
	n := Schema.Normalize(v)

	r := &MedicalRecord{}
	if existing != nil {
		r = existing.Clone()
	}
	if s, _ := n["patient_id"].(string); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, form.Errors{"patient_id": "Please select a valid patient"}
		}
		r.PatientID = id
	}
	for name, dst := range map[string]*string{
		"type":        &r.Type,
		"title":       &r.Title,
		"provider":    &r.Provider,
		"description": &r.Description,
		"notes":       &r.Notes,
		"results":     &r.Results,
		"dosage":      &r.Dosage,
		"frequency":   &r.Frequency,
		"duration":    &r.Duration,
	} {
		if s, ok := n[name].(string); ok {
			*dst = s
		}
	}
	if d, ok := form.ParseDate(n["date"]); ok {
		r.Date = d
	}
	if tags, ok := n["tags"].([]string); ok {
		r.Tags = tags
	}
	if !HasResults(r.Type) {
		r.Results = ""
	}
	if !HasDosage(r.Type) {
		r.Dosage, r.Frequency, r.Duration = "", "", ""
	}
	return r, nil
}

// Filter is the record page's search panel. End is inclusive to the last
// second of its day.
type Filter struct {
	PatientID *uuid.UUID
	Search    string
	Type      string
	Start     *time.Time
	End       *time.Time
}

// Query orders newest first.
func (f Filter) Query() store.Query {
	q := store.Query{OrderBy: []store.SortKey{{Field: "date", Direction: store.Desc}}}
	if f.PatientID != nil {
		q.Where = append(q.Where, store.Eq("patient_id", *f.PatientID))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		q.WhereGroups = append(q.WhereGroups, store.AnyOf(
			store.Like("title", term),
			store.Like("description", term),
			store.Like("provider", term),
		))
	}
	if f.Type != "" && f.Type != listing.All {
		q.Where = append(q.Where, store.Eq("type", f.Type))
	}
	if f.Start != nil {
		q.Where = append(q.Where, store.Gte("date", *f.Start))
	}
	if f.End != nil {
		y, m, d := f.End.Date()
		end := time.Date(y, m, d, 23, 59, 59, 0, f.End.Location())
		q.Where = append(q.Where, store.Lte("date", end))
	}
	return q
}

// Filtered reports whether any narrowing beyond the patient is applied.
func (f Filter) Filtered() bool {
	return strings.TrimSpace(f.Search) != "" || (f.Type != "" && f.Type != listing.All) || f.Start != nil || f.End != nil
}

type Service struct {
	repo     Repository
	patients *patient.Service
}

func NewService(repo Repository, patients *patient.Service) *Service {
	return &Service{repo: repo, patients: patients}
}

func (s *Service) Patients() *patient.Service { return s.patients }

func (s *Service) List(ctx context.Context, f Filter) ([]*MedicalRecord, error) {
	items, _, err := s.repo.List(ctx, f.Query())
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	return items, nil
}

// Timeline fetches the filtered records and the patient's unfiltered count
// concurrently and groups the matches for display.
func (s *Service) Timeline(ctx context.Context, f Filter, opts timeline.Options) (timeline.View[Entry], error) {
	var (
		matched []*MedicalRecord
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matched, err = s.List(gctx, f)
		return err
	})
	g.Go(func() error {
		if !f.Filtered() {
			return nil
		}
		var err error
		_, total, err = s.repo.List(gctx, Filter{PatientID: f.PatientID}.Query())
		return err
	})
	if err := g.Wait(); err != nil {
		return timeline.View[Entry]{}, err
	}
	if !f.Filtered() {
		total = len(matched)
	}
	entries := make([]Entry, len(matched))
	for i, r := range matched {
		entries[i] = NewEntry(r)
	}
	return timeline.NewView(total, entries, func(e Entry) time.Time { return e.Date }, opts), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, v form.Values) (*MedicalRecord, error) {
	r, err := FromForm(v, nil)
	if err != nil {
		return nil, err
	}
	if err := s.checkPatient(ctx, r.PatientID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create medical record: %w", err)
	}
	return r, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, v form.Values) (*MedicalRecord, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := FromForm(v, existing)
	if err != nil {
		return nil, err
	}
	if r.PatientID != existing.PatientID {
		if err := s.checkPatient(ctx, r.PatientID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update medical record: %w", err)
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete medical record: %w", err)
	}
	return ok, nil
}

func (s *Service) checkPatient(ctx context.Context, id uuid.UUID) error {
	_, err := s.patients.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return form.Errors{"patient_id": "Patient not found"}
	}
	if err != nil {
		return fmt.Errorf("load patient: %w", err)
	}
	return nil
}
