package help

import (
	"strings"

	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/icon"
	"github.com/caretrack/caretrack/internal/platform/listing"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// Kinds of search hits.
const (
	KindGuide = "guide"
	KindFAQ   = "faq"
	KindTopic = "troubleshooting"
)

const (
	sectionGuide = "/help/guides"
	sectionFAQ   = "/help/faqs"
	sectionTopic = "/help/troubleshooting"
)

// Area is one entry of the Help Center landing page.
type Area struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var areas = []Area{
	{Name: "User Guides", Path: sectionGuide, Icon: "file-text", Description: "Step-by-step guides for using CareTrack"},
	{Name: "FAQs", Path: sectionFAQ, Icon: "help-circle", Description: "Frequently asked questions"},
	{Name: "Troubleshooting", Path: sectionTopic, Icon: "alert-circle", Description: "Solutions for common issues"},
}

// Entry is a searchable unit of help content. A guide contributes one
// entry per section.
type Entry struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Path    string `json:"path"`
	Context string `json:"context,omitempty"`
	body    string
}

// SearchSpec matches free text against title, summary and body.
var SearchSpec = listing.Spec[Entry]{
	Search: []func(Entry) string{
		func(e Entry) string { return e.Title },
		func(e Entry) string { return e.Summary },
		func(e Entry) string { return e.body },
	},
	Facets: map[string]func(Entry) string{
		"kind": func(e Entry) string { return e.Kind },
	},
	Sorts: map[string]func(Entry) any{
		"kind":  func(e Entry) any { return e.Kind },
		"title": func(e Entry) any { return e.Title },
	},
	DefaultSort: "kind",
}

type Service struct {
	catalog *Catalog
	entries []Entry
	search  *listing.Engine[Entry]
}

func NewService(c *Catalog) *Service {
	s := &Service{catalog: c, search: listing.New(SearchSpec)}
	for _, g := range c.Guides {
		for _, sec := range g.Sections {
			s.entries = append(s.entries, Entry{
				Kind: KindGuide, ID: g.ID, Title: sec.Title, Summary: g.Description,
				Path: sectionGuide + "/" + g.ID, Context: g.Title, body: sec.Text,
			})
		}
	}
	for _, cat := range c.FAQs {
		for _, q := range cat.Questions {
			s.entries = append(s.entries, Entry{
				Kind: KindFAQ, ID: q.ID, Title: q.Question, Summary: q.Answer,
				Path: sectionFAQ + "/" + cat.ID, Context: cat.Name,
			})
		}
	}
	for _, t := range c.Troubleshooting {
		s.entries = append(s.entries, Entry{
			Kind: KindTopic, ID: t.ID, Title: t.Title, Summary: t.Description,
			Path: sectionTopic + "/" + t.ID,
			body: strings.Join(append(append([]string{}, t.Symptoms...), t.Steps...), "\n"),
		})
	}
	return s
}

// Areas lists the Help Center sections.
func (s *Service) Areas() []Area {
	out := make([]Area, len(areas))
	for i, a := range areas {
		a.Icon = icon.Resolve(a.Icon)
		out[i] = a
	}
	return out
}

func (s *Service) Guides() []Guide {
	out := make([]Guide, len(s.catalog.Guides))
	for i, g := range s.catalog.Guides {
		g.Icon = icon.Resolve(g.Icon)
		out[i] = g
	}
	return out
}

func (s *Service) Guide(id string) (Guide, error) {
	for _, g := range s.Guides() {
		if g.ID == id {
			return g, nil
		}
	}
	return Guide{}, store.ErrNotFound
}

// FAQs returns every category, or only the named one. "all" and "" select
// every category.
func (s *Service) FAQs(category string) ([]Category, error) {
	if category == "" || category == listing.All {
		return s.catalog.FAQs, nil
	}
	for _, c := range s.catalog.FAQs {
		if c.ID == category {
			return []Category{c}, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Service) Troubleshooting() []Topic {
	return s.catalog.Troubleshooting
}

func (s *Service) Topic(id string) (Topic, error) {
	for _, t := range s.catalog.Troubleshooting {
		if t.ID == id {
			return t, nil
		}
	}
	return Topic{}, store.ErrNotFound
}

// Search runs a free-text query over every entry. A blank query is
// rejected.
func (s *Service) Search(st listing.State) (listing.Result[Entry], error) {
	if strings.TrimSpace(st.Search) == "" {
		return listing.Result[Entry]{}, form.Errors{"q": "Search query is required"}
	}
	if err := SearchSpec.Validate(st); err != nil {
		return listing.Result[Entry]{}, err
	}
	return s.search.Apply(s.entries, st), nil
}
