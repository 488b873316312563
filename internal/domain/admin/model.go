// Package admin serves the back-office screens: a dashboard and one table
// plus form per managed entity.
package admin

import "github.com/caretrack/caretrack/internal/platform/form"

// Meta describes an entity on the dashboard and in its table header.
type Meta struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Path        string `json:"path"`
}

// Column is one table column. Key is the entity's wire field name.
type Column struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
}

// Card is a dashboard tile.
type Card struct {
	Meta
	Count int `json:"count"`
}

// Layout is what a client needs to render an entity's table and form.
type Layout struct {
	Meta
	Columns []Column          `json:"columns"`
	Fields  []form.Descriptor `json:"fields"`
}
