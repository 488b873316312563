// Package listing implements the in-memory list pipeline used by the list
// and table views: free-text search, facet filters, a stable single-key sort
// and pagination. The input slice is never modified.
package listing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/caretrack/caretrack/internal/platform/store"
	"github.com/caretrack/caretrack/pkg/pagination"
)

// All disables a facet, as does the empty string.
const All = "all"

// Spec describes how one record type is searched, filtered and sorted.
type Spec[T any] struct {
	// Search holds the fields matched by free text.
	Search []func(T) string
	// Facets are exact-match filters keyed by facet name.
	Facets map[string]func(T) string
	// Dates are date-bucket facets keyed by facet name.
	Dates map[string]func(T) time.Time
	// Sorts are the sortable keys. Values are compared after
	// store.Normalize; strings use English collation.
	Sorts       map[string]func(T) any
	DefaultSort string
}

// Validate reports facet or sort names the spec does not know. Errors wrap
// store.ErrUnknownField.
func (s Spec[T]) Validate(st State) error {
	for name, v := range st.Facets {
		if _, ok := s.Facets[name]; ok {
			continue
		}
		if _, ok := s.Dates[name]; ok {
			if v != "" && v != All && !ValidBucket(v) {
				return fmt.Errorf("%w: date range %q", store.ErrUnknownField, v)
			}
			continue
		}
		return fmt.Errorf("%w: filter %q", store.ErrUnknownField, name)
	}
	if st.Sort != "" {
		if _, ok := s.Sorts[st.Sort]; !ok {
			return fmt.Errorf("%w: sort field %q", store.ErrUnknownField, st.Sort)
		}
	}
	if st.Direction != "" && st.Direction != store.Asc && st.Direction != store.Desc {
		return fmt.Errorf("%w: sort direction %q", store.ErrUnknownField, st.Direction)
	}
	return nil
}

// Engine applies a Spec. The zero clock is time.Now.
type Engine[T any] struct {
	spec Spec[T]
	now  func() time.Time
}

func New[T any](spec Spec[T]) *Engine[T] {
	return &Engine[T]{spec: spec, now: time.Now}
}

// WithClock returns a copy of the engine evaluating date buckets against now.
func (e *Engine[T]) WithClock(now func() time.Time) *Engine[T] {
	return &Engine[T]{spec: e.spec, now: now}
}

func (e *Engine[T]) Spec() Spec[T] { return e.spec }

// Result is one page of the pipeline output together with the distinct
// facet values present in the unfiltered input.
type Result[T any] struct {
	pagination.Page[T]
	Options map[string][]string `json:"options"`
	Sort    string              `json:"sort"`
	Dir     store.Direction     `json:"direction"`
}

// Apply runs search, facets, sort and pagination.
func (e *Engine[T]) Apply(items []T, st State) Result[T] {
	st = st.normalize(e.spec.DefaultSort)
	rows := e.Filter(items, st)
	return Result[T]{
		Page:    pagination.Paginate(rows, pagination.Params{Page: st.Page, PageSize: st.PageSize}),
		Options: e.Options(items),
		Sort:    st.Sort,
		Dir:     st.Direction,
	}
}

// Filter runs every stage except pagination and returns a new slice.
func (e *Engine[T]) Filter(items []T, st State) []T {
	st = st.normalize(e.spec.DefaultSort)
	needle := strings.ToLower(strings.TrimSpace(st.Search))
	now := e.now()

	out := make([]T, 0, len(items))
	for _, it := range items {
		if needle != "" && !e.matchesSearch(it, needle) {
			continue
		}
		if !e.matchesFacets(it, st.Facets, now) {
			continue
		}
		out = append(out, it)
	}
	e.sort(out, st.Sort, st.Direction)
	return out
}

func (e *Engine[T]) matchesSearch(it T, needle string) bool {
	for _, f := range e.spec.Search {
		if strings.Contains(strings.ToLower(f(it)), needle) {
			return true
		}
	}
	return false
}

func (e *Engine[T]) matchesFacets(it T, facets map[string]string, now time.Time) bool {
	for name, want := range facets {
		if want == "" || want == All {
			continue
		}
		if f, ok := e.spec.Facets[name]; ok {
			if f(it) != want {
				return false
			}
			continue
		}
		if f, ok := e.spec.Dates[name]; ok {
			if !InBucket(Bucket(want), f(it), now) {
				return false
			}
		}
	}
	return true
}

func (e *Engine[T]) sort(rows []T, field string, dir store.Direction) {
	key, ok := e.spec.Sorts[field]
	if !ok {
		return
	}
	// collate.Collator keeps scratch buffers and is not safe for concurrent use.
	col := collate.New(language.English)
	vals := make([]any, len(rows))
	for i, r := range rows {
		vals[i] = store.Normalize(key(r))
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := vals[idx[a]], vals[idx[b]]
		switch {
		case va == nil && vb == nil:
			return false
		case va == nil:
			return false
		case vb == nil:
			return true
		}
		var cmp int
		if sa, ok := va.(string); ok {
			sb, _ := vb.(string)
			cmp = col.CompareString(sa, sb)
		} else {
			cmp, _ = store.Compare(va, vb)
		}
		if dir == store.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
	sorted := make([]T, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}

// Options returns the distinct non-empty values of each exact-match facet in
// first-seen order.
func (e *Engine[T]) Options(items []T) map[string][]string {
	out := make(map[string][]string, len(e.spec.Facets))
	for name, f := range e.spec.Facets {
		seen := map[string]bool{}
		vals := []string{}
		for _, it := range items {
			v := f(it)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			vals = append(vals, v)
		}
		out[name] = vals
	}
	return out
}
