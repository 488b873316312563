package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/listing"
	"github.com/caretrack/caretrack/internal/platform/store"
)

type Service struct {
	order   []string
	byName  map[string]Resource
	engines map[string]*listing.Engine[store.Entity]
	logger  zerolog.Logger
}

// NewService registers resources in dashboard order. Each table searches
// every column and sorts on the sortable ones, first sortable column by
// default.
func NewService(logger zerolog.Logger, resources ...Resource) *Service {
	s := &Service{
		byName:  make(map[string]Resource, len(resources)),
		engines: make(map[string]*listing.Engine[store.Entity], len(resources)),
		logger:  logger,
	}
	for _, r := range resources {
		name := r.Meta().Name
		s.order = append(s.order, name)
		s.byName[name] = r
		s.engines[name] = listing.New(tableSpec(r.Columns()))
	}
	return s
}

func tableSpec(cols []Column) listing.Spec[store.Entity] {
	spec := listing.Spec[store.Entity]{Sorts: map[string]func(store.Entity) any{}}
	for _, col := range cols {
		key := col.Key
		spec.Search = append(spec.Search, func(e store.Entity) string { return cell(e, key) })
		if !col.Sortable {
			continue
		}
		spec.Sorts[key] = func(e store.Entity) any {
			v, _ := e.Field(key)
			return v
		}
		if spec.DefaultSort == "" {
			spec.DefaultSort = key
		}
	}
	return spec
}

// Resource looks an entity up by its URL name.
func (s *Service) Resource(name string) (Resource, error) {
	r, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("admin entity %q: %w", name, store.ErrNotFound)
	}
	return r, nil
}

// Dashboard counts every entity concurrently.
func (s *Service) Dashboard(ctx context.Context) ([]Card, error) {
	cards := make([]Card, len(s.order))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range s.order {
		r := s.byName[name]
		cards[i].Meta = r.Meta()
		g.Go(func() error {
			items, err := r.List(gctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			cards[i].Count = len(items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *Service) Layout(name string) (Layout, error) {
	r, err := s.Resource(name)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Meta: r.Meta(), Columns: r.Columns(), Fields: r.Schema().Describe()}, nil
}

// Table runs search, sort and pagination over every row of the entity.
func (s *Service) Table(ctx context.Context, name string, st listing.State) (listing.Result[store.Entity], error) {
	r, err := s.Resource(name)
	if err != nil {
		return listing.Result[store.Entity]{}, err
	}
	engine := s.engines[name]
	if err := engine.Spec().Validate(st); err != nil {
		return listing.Result[store.Entity]{}, err
	}
	items, err := r.List(ctx)
	if err != nil {
		return listing.Result[store.Entity]{}, fmt.Errorf("list %s: %w", name, err)
	}
	return engine.Apply(items, st), nil
}

func (s *Service) Get(ctx context.Context, name string, id uuid.UUID) (store.Entity, error) {
	r, err := s.Resource(name)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string, v form.Values) (store.Entity, error) {
	r, err := s.Resource(name)
	if err != nil {
		return nil, err
	}
	e, err := r.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("entity", name).Str("id", e.GetID().String()).Msg("admin record created")
	return e, nil
}

func (s *Service) Update(ctx context.Context, name string, id uuid.UUID, v form.Values) (store.Entity, error) {
	r, err := s.Resource(name)
	if err != nil {
		return nil, err
	}
	return r.Update(ctx, id, v)
}

func (s *Service) Delete(ctx context.Context, name string, id uuid.UUID) (bool, error) {
	r, err := s.Resource(name)
	if err != nil {
		return false, err
	}
	ok, err := r.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.logger.Info().Str("entity", name).Str("id", id.String()).Msg("admin record deleted")
	return true, nil
}
