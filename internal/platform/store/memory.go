package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Repository. Records are kept in insertion order
// and cloned on the way in and out so callers never share state with the
// store.
type Memory[T Entity] struct {
	mu    sync.RWMutex
	order []uuid.UUID
	items map[uuid.UUID]T
	clone func(T) T
	now   func() time.Time
}

func NewMemory[T Entity](clone func(T) T) *Memory[T] {
	return &Memory[T]{
		items: make(map[uuid.UUID]T),
		clone: clone,
		now:   time.Now,
	}
}

func (m *Memory[T]) List(_ context.Context, q Query) ([]T, int, error) {
	if err := q.Validate(nil); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	var matched []T
	for _, id := range m.order {
		v := m.items[id]
		if Matches(q, v) {
			matched = append(matched, m.clone(v))
		}
	}
	m.mu.RUnlock()

	if len(q.OrderBy) > 0 {
		SortEntities(matched, q.OrderBy)
	}
	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < total {
		end = start + q.Limit
	}
	return matched[start:end], total, nil
}

func (m *Memory[T]) GetByID(_ context.Context, id uuid.UUID) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return m.clone(v), nil
}

func (m *Memory[T]) Create(_ context.Context, v T) error {
	if v.GetID() == uuid.Nil {
		v.SetID(uuid.New())
	}
	now := m.now().UTC()
	v.Stamp(now, now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[v.GetID()]; !exists {
		m.order = append(m.order, v.GetID())
	}
	m.items[v.GetID()] = m.clone(v)
	return nil
}

func (m *Memory[T]) Update(_ context.Context, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.items[v.GetID()]
	if !ok {
		return ErrNotFound
	}
	created, _ := old.Field("created_at")
	createdAt, _ := created.(time.Time)
	v.Stamp(createdAt, m.now().UTC())
	m.items[v.GetID()] = m.clone(v)
	return nil
}

func (m *Memory[T]) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// SortEntities stable-sorts items by keys. Missing values sort last
// regardless of direction.
func SortEntities[T Entity](items []T, keys []SortKey) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, k := range keys {
			a, _ := items[i].Field(k.Field)
			b, _ := items[j].Field(k.Field)
			na, nb := Normalize(a), Normalize(b)
			switch {
			case na == nil && nb == nil:
				continue
			case na == nil:
				return false
			case nb == nil:
				return true
			}
			cmp, ok := Compare(na, nb)
			if !ok || cmp == 0 {
				continue
			}
			if k.Direction == Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
