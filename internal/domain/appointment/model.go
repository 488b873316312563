package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Recurrence patterns.
const (
	Weekly   = "Weekly"
	BiWeekly = "Bi-weekly"
	Monthly  = "Monthly"
)

var validPatterns = map[string]bool{Weekly: true, BiWeekly: true, Monthly: true}

// Defaults applied when an appointment's references cannot be resolved.
const (
	UnknownPatient = "Unknown Patient"
	DefaultStatus  = "Scheduled"
	DefaultType    = "Check-up"
	DefaultColor   = "primary"
)

var statusColors = map[string]string{
	"Scheduled":   "badge-blue",
	"Confirmed":   "badge-green",
	"Checked In":  "badge-purple",
	"In Progress": "badge-yellow",
	"Completed":   "badge-green",
	"Cancelled":   "badge-red",
	"No-show":     "badge-red",
	"Rescheduled": "badge-purple",
}

// StatusColor returns the badge class of a status name.
func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return "badge-blue"
}

type Appointment struct {
	ID               uuid.UUID  `db:"id" json:"id" bson:"_id"`
	Name             string     `db:"name" json:"name" bson:"name"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id" bson:"patient_id"`
	ProviderID       *uuid.UUID `db:"provider_id" json:"provider_id,omitempty" bson:"provider_id,omitempty"`
	TypeID           *uuid.UUID `db:"type_id" json:"type_id,omitempty" bson:"type_id,omitempty"`
	StatusID         *uuid.UUID `db:"status_id" json:"status_id,omitempty" bson:"status_id,omitempty"`
	Start            time.Time  `db:"start_time" json:"start" bson:"start"`
	End              time.Time  `db:"end_time" json:"end" bson:"end"`
	Duration         int        `db:"duration" json:"duration" bson:"duration"`
	Reason           string     `db:"reason" json:"reason,omitempty" bson:"reason,omitempty"`
	Notes            string     `db:"notes" json:"notes,omitempty" bson:"notes,omitempty"`
	IsRecurring      bool       `db:"is_recurring" json:"is_recurring" bson:"is_recurring"`
	RecurringPattern string     `db:"recurring_pattern" json:"recurring_pattern,omitempty" bson:"recurring_pattern,omitempty"`
	WaitTime         *int       `db:"wait_time" json:"wait_time,omitempty" bson:"wait_time,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

func (a *Appointment) GetID() uuid.UUID   { return a.ID }
func (a *Appointment) SetID(id uuid.UUID) { a.ID = id }
func (a *Appointment) Stamp(c, u time.Time) {
	a.CreatedAt, a.UpdatedAt = c, u
}

func (a *Appointment) Field(name string) (any, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "name":
		return a.Name, true
	case "patient_id":
		return a.PatientID, true
	case "provider_id":
		return a.ProviderID, true
	case "type_id":
		return a.TypeID, true
	case "status_id":
		return a.StatusID, true
	case "start":
		return a.Start, true
	case "end":
		return a.End, true
	case "duration":
		return a.Duration, true
	case "reason":
		return a.Reason, true
	case "notes":
		return a.Notes, true
	case "is_recurring":
		return a.IsRecurring, true
	case "recurring_pattern":
		return a.RecurringPattern, true
	case "wait_time":
		return a.WaitTime, true
	case "created_at":
		return a.CreatedAt, true
	case "updated_at":
		return a.UpdatedAt, true
	}
	return nil, false
}

func (a *Appointment) Clone() *Appointment {
	c := *a
	c.ProviderID = cloneID(a.ProviderID)
	c.TypeID = cloneID(a.TypeID)
	c.StatusID = cloneID(a.StatusID)
	if a.WaitTime != nil {
		w := *a.WaitTime
		c.WaitTime = &w
	}
	return &c
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// TypeRef is the expanded appointment type.
type TypeRef struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
}

// View is an appointment with its references resolved and its times
// formatted for display.
type View struct {
	*Appointment
	PatientName      string  `json:"patient_name"`
	ProviderName     string  `json:"provider_name,omitempty"`
	ProviderColor    string  `json:"provider_color,omitempty"`
	Status           string  `json:"status"`
	StatusColor      string  `json:"status_color"`
	Type             TypeRef `json:"type"`
	FormattedDate    string  `json:"formatted_date"`
	FormattedTime    string  `json:"formatted_time"`
	FormattedEndTime string  `json:"formatted_end_time"`
}

func (v View) StartTime() time.Time { return v.Start }
