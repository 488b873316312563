package appointment

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/form"
)

// Patterns lists the recurrence choices in display order.
var Patterns = []string{Weekly, BiWeekly, Monthly}

// Schema is the appointment edit form. References are submitted as ids.
var Schema = form.Schema{
	{Name: "name", Label: "Title", Type: form.Text},
	{Name: "patient_id", Label: "Patient", Type: form.Text, Required: true},
	{Name: "provider_id", Label: "Provider", Type: form.Text},
	{Name: "type_id", Label: "Appointment type", Type: form.Text},
	{Name: "status_id", Label: "Status", Type: form.Text},
	{Name: "start", Label: "Start time", Type: form.Date, Required: true},
	{Name: "end", Label: "End time", Type: form.Date, Required: true},
	{Name: "duration", Label: "Duration (minutes)", Type: form.Number},
	{Name: "reason", Label: "Reason for visit", Type: form.Text},
	{Name: "notes", Label: "Notes", Type: form.MultilineText},
	{Name: "is_recurring", Label: "Recurring", Type: form.Boolean},
	{Name: "recurring_pattern", Label: "Recurring pattern", Type: form.Picklist, Options: Patterns},
	{Name: "wait_time", Label: "Wait time (minutes)", Type: form.Number},
}

// FromForm validates v and builds an appointment. When existing is non-nil
// its identity and timestamps are kept and only submitted fields change.
// A zero duration is derived from the end and start times.
func FromForm(v form.Values, existing *Appointment) (*Appointment, error) {
	if err := Schema.Validate(v); err != nil {
		return nil, err
	}
	n := Schema.Normalize(v)

	a := &Appointment{}
	if existing != nil {
		a = existing.Clone()
	}
	errs := form.Errors{}

	ref := func(name, msg string, dst **uuid.UUID) {
		raw, ok := n[name]
		if !ok {
			return
		}
		s, _ := raw.(string)
		if s == "" {
			*dst = nil
			return
		}
		id, err := uuid.Parse(s)
		if err != nil {
			errs[name] = msg
			return
		}
		*dst = &id
	}
	if s, _ := n["patient_id"].(string); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			errs["patient_id"] = "Please select a valid patient"
		} else {
			a.PatientID = id
		}
	}
	ref("provider_id", "Please select a valid provider", &a.ProviderID)
	ref("type_id", "Please select a valid appointment type", &a.TypeID)
	ref("status_id", "Please select a valid status", &a.StatusID)

	if t, ok := form.ParseDate(n["start"]); ok {
		a.Start = t
	}
	if t, ok := form.ParseDate(n["end"]); ok {
		a.End = t
	}
	if !a.End.After(a.Start) {
		errs["end"] = "End time must be after start time"
	}

	if s, ok := n["name"].(string); ok {
		a.Name = s
	}
	if s, ok := n["reason"].(string); ok {
		a.Reason = s
	}
	if s, ok := n["notes"].(string); ok {
		a.Notes = s
	}
	if b, ok := n["is_recurring"].(bool); ok {
		a.IsRecurring = b
	}
	if s, ok := n["recurring_pattern"].(string); ok {
		a.RecurringPattern = s
	}
	if a.IsRecurring && !validPatterns[a.RecurringPattern] {
		errs["recurring_pattern"] = "Recurring pattern is required"
	}
	if !a.IsRecurring {
		a.RecurringPattern = ""
	}

	if raw, ok := n["wait_time"]; ok {
		if f, ok := raw.(float64); ok {
			w := int(math.Round(f))
			a.WaitTime = &w
		} else {
			a.WaitTime = nil
		}
	}
	if f, ok := n["duration"].(float64); ok {
		a.Duration = int(math.Round(f))
	} else if _, submitted := n["start"]; submitted {
		a.Duration = 0
	}
	if a.Duration <= 0 && a.End.After(a.Start) {
		a.Duration = int(a.End.Sub(a.Start) / time.Minute)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return a, nil
}
