// Package reference holds the lookup data behind appointments: providers,
// appointment types and appointment statuses.
package reference

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProviderColor is used when a provider is saved without a color.
const DefaultProviderColor = "#4f46e5"

type Provider struct {
	ID        uuid.UUID `db:"id" json:"id" bson:"_id"`
	Name      string    `db:"name" json:"name" bson:"name"`
	Specialty string    `db:"specialty" json:"specialty" bson:"specialty"`
	Color     string    `db:"color" json:"color" bson:"color"`
	Available bool      `db:"available" json:"available" bson:"available"`
	Tags      []string  `db:"tags" json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

func (p *Provider) GetID() uuid.UUID   { return p.ID }
func (p *Provider) SetID(id uuid.UUID) { p.ID = id }
func (p *Provider) Stamp(c, u time.Time) {
	p.CreatedAt, p.UpdatedAt = c, u
}

func (p *Provider) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "name":
		return p.Name, true
	case "specialty":
		return p.Specialty, true
	case "color":
		return p.Color, true
	case "available":
		return p.Available, true
	case "tags":
		return p.Tags, true
	case "created_at":
		return p.CreatedAt, true
	case "updated_at":
		return p.UpdatedAt, true
	}
	return nil, false
}

func (p *Provider) Clone() *Provider {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

// Label is a named, colored code. Appointment types and appointment
// statuses share this shape and live in separate tables.
type Label struct {
	ID        uuid.UUID `db:"id" json:"id" bson:"_id"`
	Name      string    `db:"name" json:"name" bson:"name"`
	Color     string    `db:"color" json:"color" bson:"color"`
	Tags      []string  `db:"tags" json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

func (l *Label) GetID() uuid.UUID   { return l.ID }
func (l *Label) SetID(id uuid.UUID) { l.ID = id }
func (l *Label) Stamp(c, u time.Time) {
	l.CreatedAt, l.UpdatedAt = c, u
}

func (l *Label) Field(name string) (any, bool) {
	switch name {
	case "id":
		return l.ID, true
	case "name":
		return l.Name, true
	case "color":
		return l.Color, true
	case "tags":
		return l.Tags, true
	case "created_at":
		return l.CreatedAt, true
	case "updated_at":
		return l.UpdatedAt, true
	}
	return nil, false
}

func (l *Label) Clone() *Label {
	c := *l
	c.Tags = append([]string(nil), l.Tags...)
	return &c
}
