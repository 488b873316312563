// Package help serves the Help Center: user guides, FAQs grouped by
// category, troubleshooting topics and a search across all three.
package help

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type Guide struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
}

type Question struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Category groups FAQ entries.
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

type Topic struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Symptoms    []string `json:"symptoms"`
	Steps       []string `json:"steps"`
}

// Catalog is the full help content.
type Catalog struct {
	Guides          []Guide    `json:"guides"`
	FAQs            []Category `json:"faqs"`
	Troubleshooting []Topic    `json:"troubleshooting"`
}

//go:embed catalog.json
var defaultCatalog []byte

// Default returns the bundled catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a catalog and rejects empty or duplicate ids within a
// section.
func Parse(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode help catalog: %w", err)
	}
	ids := make([]string, 0, len(c.Guides))
	for _, g := range c.Guides {
		ids = append(ids, g.ID)
	}
	if err := unique("guide", ids); err != nil {
		return nil, err
	}
	ids = ids[:0]
	for _, cat := range c.FAQs {
		for _, q := range cat.Questions {
			ids = append(ids, q.ID)
		}
	}
	if err := unique("question", ids); err != nil {
		return nil, err
	}
	ids = ids[:0]
	for _, t := range c.Troubleshooting {
		ids = append(ids, t.ID)
	}
	if err := unique("topic", ids); err != nil {
		return nil, err
	}
	return &c, nil
}

func unique(kind string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("help catalog: %s without id", kind)
		}
		if seen[id] {
			return fmt.Errorf("help catalog: duplicate %s id %q", kind, id)
		}
		seen[id] = true
	}
	return nil
}
