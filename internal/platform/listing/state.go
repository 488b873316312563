package listing

import (
	"maps"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/store"
	"github.com/caretrack/caretrack/pkg/pagination"
)

// State is the user-controlled input of the pipeline. Every change to
// search, facets or sort returns a copy positioned on page 1.
type State struct {
	Search    string            `json:"search,omitempty"`
	Facets    map[string]string `json:"facets,omitempty"`
	Sort      string            `json:"sort,omitempty"`
	Direction store.Direction   `json:"direction,omitempty"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

func (s State) WithSearch(q string) State {
	s.Search = q
	s.Page = 1
	return s
}

func (s State) WithFacet(name, value string) State {
	f := make(map[string]string, len(s.Facets)+1)
	maps.Copy(f, s.Facets)
	f[name] = value
	s.Facets = f
	s.Page = 1
	return s
}

func (s State) WithSort(field string, dir store.Direction) State {
	s.Sort = field
	s.Direction = dir
	s.Page = 1
	return s
}

// ToggleSort flips the direction when field is already the sort key and
// otherwise sorts ascending by field.
func (s State) ToggleSort(field string) State {
	if s.Sort == field {
		if s.Direction == store.Desc {
			return s.WithSort(field, store.Asc)
		}
		return s.WithSort(field, store.Desc)
	}
	return s.WithSort(field, store.Asc)
}

func (s State) WithPage(page int) State {
	s.Page = page
	return s
}

func (s State) normalize(defaultSort string) State {
	if s.Sort == "" {
		s.Sort = defaultSort
	}
	if s.Direction == "" {
		s.Direction = store.Asc
	}
	p := pagination.Params{Page: s.Page, PageSize: s.PageSize}.Normalize()
	s.Page, s.PageSize = p.Page, p.PageSize
	return s
}

// FromContext reads q, sort, direction, page and page_size plus one query
// parameter per facet name.
func FromContext(c echo.Context, facets ...string) State {
	p := pagination.FromContext(c)
	st := State{
		Search:    c.QueryParam("q"),
		Sort:      c.QueryParam("sort"),
		Direction: store.Direction(strings.ToLower(c.QueryParam("direction"))),
		Page:      p.Page,
		PageSize:  p.PageSize,
	}
	for _, name := range facets {
		if v := c.QueryParam(name); v != "" {
			if st.Facets == nil {
				st.Facets = map[string]string{}
			}
			st.Facets[name] = v
		}
	}
	return st
}
