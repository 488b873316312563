package reference

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// Catalog is form-driven CRUD over one reference table. Lists are ordered
// by name.
type Catalog[T store.Entity] struct {
	name   string
	repo   store.Repository[T]
	schema form.Schema
	build  func(n form.Values, existing T) T
}

func (c *Catalog[T]) Name() string { return c.name }

func (c *Catalog[T]) Schema() form.Schema { return c.schema }

func (c *Catalog[T]) List(ctx context.Context) ([]T, error) {
	items, _, err := c.repo.List(ctx, store.Query{
		OrderBy: []store.SortKey{{Field: "name", Direction: store.Asc}},
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return items, nil
}

// Find runs an arbitrary store query, used by callers that filter on the
// store side.
func (c *Catalog[T]) Find(ctx context.Context, q store.Query) ([]T, int, error) {
	return c.repo.List(ctx, q)
}

func (c *Catalog[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	return c.repo.GetByID(ctx, id)
}

func (c *Catalog[T]) Create(ctx context.Context, v form.Values) (T, error) {
	var zero T
	if err := c.schema.Validate(v); err != nil {
		return zero, err
	}
	item := c.build(c.schema.Normalize(v), zero)
	if err := c.repo.Create(ctx, item); err != nil {
		return zero, fmt.Errorf("create %s: %w", c.name, err)
	}
	return item, nil
}

func (c *Catalog[T]) Update(ctx context.Context, id uuid.UUID, v form.Values) (T, error) {
	var zero T
	existing, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := c.schema.Validate(v); err != nil {
		return zero, err
	}
	item := c.build(c.schema.Normalize(v), existing)
	if err := c.repo.Update(ctx, item); err != nil {
		return zero, fmt.Errorf("update %s: %w", c.name, err)
	}
	return item, nil
}

func (c *Catalog[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := c.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c.name, err)
	}
	return ok, nil
}

// ProviderSchema is the provider admin form.
var ProviderSchema = form.Schema{
	{Name: "name", Label: "Name", Type: form.Text, Required: true},
	{Name: "specialty", Label: "Specialty", Type: form.Text, Required: true},
	{Name: "color", Label: "Color", Type: form.Text, Required: true, Placeholder: "#RRGGBB"},
	{Name: "available", Label: "Available", Type: form.Boolean},
	{Name: "tags", Label: "Tags", Type: form.Tag},
}

// LabelSchema is the admin form of appointment types and statuses.
var LabelSchema = form.Schema{
	{Name: "name", Label: "Name", Type: form.Text, Required: true},
	{Name: "color", Label: "Color", Type: form.Text, Required: true, Placeholder: "#RRGGBB"},
	{Name: "tags", Label: "Tags", Type: form.Tag},
}

func buildProvider(n form.Values, existing *Provider) *Provider {
	p := &Provider{Available: true}
	if existing != nil {
		p = existing.Clone()
	}
	if _, ok := n["name"]; ok {
		p.Name = n.String("name")
	}
	if _, ok := n["specialty"]; ok {
		p.Specialty = n.String("specialty")
	}
	if _, ok := n["color"]; ok {
		p.Color = n.String("color")
	}
	if b, ok := n["available"].(bool); ok {
		p.Available = b
	}
	if tags, ok := n["tags"].([]string); ok {
		p.Tags = tags
	}
	if p.Color == "" {
		p.Color = DefaultProviderColor
	}
	return p
}

func buildLabel(n form.Values, existing *Label) *Label {
	l := &Label{}
	if existing != nil {
		l = existing.Clone()
	}
	if _, ok := n["name"]; ok {
		l.Name = n.String("name")
	}
	if _, ok := n["color"]; ok {
		l.Color = n.String("color")
	}
	if tags, ok := n["tags"].([]string); ok {
		l.Tags = tags
	}
	return l
}

// Service groups the three reference catalogs.
type Service struct {
	Providers *Catalog[*Provider]
	Types     *Catalog[*Label]
	Statuses  *Catalog[*Label]
}

func NewService(providers store.Repository[*Provider], types, statuses store.Repository[*Label]) *Service {
	return &Service{
		Providers: &Catalog[*Provider]{name: "provider", repo: providers, schema: ProviderSchema, build: buildProvider},
		Types:     &Catalog[*Label]{name: "appointment type", repo: types, schema: LabelSchema, build: buildLabel},
		Statuses:  &Catalog[*Label]{name: "appointment status", repo: statuses, schema: LabelSchema, build: buildLabel},
	}
}

// AvailableProviders lists providers open for booking, by name.
func (s *Service) AvailableProviders(ctx context.Context) ([]*Provider, error) {
	items, _, err := s.Providers.Find(ctx, store.Query{
		Where:   []store.Condition{store.Eq("available", true)},
		OrderBy: []store.SortKey{{Field: "name", Direction: store.Asc}},
	})
	if err != nil {
		return nil, fmt.Errorf("list available providers: %w", err)
	}
	return items, nil
}

// StatusByName finds an appointment status by its exact name.
func (s *Service) StatusByName(ctx context.Context, name string) (*Label, error) {
	return byName(ctx, s.Statuses, name)
}

// TypeByName finds an appointment type by its exact name.
func (s *Service) TypeByName(ctx context.Context, name string) (*Label, error) {
	return byName(ctx, s.Types, name)
}

func byName(ctx context.Context, c *Catalog[*Label], name string) (*Label, error) {
	items, _, err := c.Find(ctx, store.Query{Where: []store.Condition{store.Eq("name", name)}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	return items[0], nil
}
