package patient

import (
	"time"

	"github.com/caretrack/caretrack/internal/platform/form"
)

// Schema is the patient registration form. Labels double as the subject of
// the "is required" messages.
var Schema = form.Schema{
	{Name: "first_name", Label: "First name", Type: form.Text, Required: true},
	{Name: "last_name", Label: "Last name", Type: form.Text, Required: true},
	{Name: "dob", Label: "Date of birth", Type: form.Date, Required: true},
	{Name: "gender", Label: "Gender", Type: form.Picklist, Required: true, Options: Genders},
	{Name: "phone", Label: "Phone number", Type: form.Phone, Required: true},
	{Name: "email", Label: "Email", Type: form.Email},
	{Name: "address", Label: "Address", Type: form.MultilineText},
	{Name: "insurance_provider", Label: "Insurance provider", Type: form.Text},
	{Name: "insurance_number", Label: "Insurance number", Type: form.Text},
	{Name: "medical_conditions", Label: "Medical conditions", Type: form.Tag, Placeholder: "Diabetes, Hypertension"},
	{Name: "allergies", Label: "Allergies", Type: form.Tag, Placeholder: "Penicillin, Peanuts"},
	{Name: "status", Label: "Status", Type: form.Picklist, Options: Statuses},
}

// AdminSchema is the patient form of the admin screens. It adds tags and
// makes email and status mandatory while dob and phone become optional.
var AdminSchema = form.Schema{
	{Name: "first_name", Label: "First Name", Type: form.Text, Required: true},
	{Name: "last_name", Label: "Last Name", Type: form.Text, Required: true},
	{Name: "gender", Label: "Gender", Type: form.Picklist, Required: true, Options: Genders},
	{Name: "dob", Label: "Date of Birth", Type: form.Date},
	{Name: "email", Label: "Email", Type: form.Email, Required: true},
	{Name: "phone", Label: "Phone", Type: form.Phone},
	{Name: "address", Label: "Address", Type: form.MultilineText},
	{Name: "insurance_provider", Label: "Insurance Provider", Type: form.Text},
	{Name: "insurance_number", Label: "Insurance Number", Type: form.Text},
	{Name: "medical_conditions", Label: "Medical Conditions", Type: form.Tag},
	{Name: "allergies", Label: "Allergies", Type: form.Tag},
	{Name: "status", Label: "Status", Type: form.Picklist, Required: true, Options: Statuses},
	{Name: "tags", Label: "Tags", Type: form.Tag},
}

// FromForm validates v against schema and builds a patient. When existing
// is non-nil its identity and timestamps are kept and only submitted fields
// are overwritten.
func FromForm(schema form.Schema, v form.Values, existing *Patient) (*Patient, error) {
	if err := schema.Validate(v); err != nil {
		return nil, err
	}
	n := schema.Normalize(v)

	p := &Patient{}
	if existing != nil {
		p = existing.Clone()
	}
	str := func(name string, dst *string) {
		if s, ok := n[name].(string); ok {
			*dst = s
		}
	}
	list := func(name string, dst *[]string) {
		if l, ok := n[name].([]string); ok {
			*dst = l
		}
	}
	str("first_name", &p.FirstName)
	str("last_name", &p.LastName)
	str("gender", &p.Gender)
	str("phone", &p.Phone)
	str("email", &p.Email)
	str("address", &p.Address)
	str("insurance_provider", &p.InsuranceProvider)
	str("insurance_number", &p.InsuranceNumber)
	str("status", &p.Status)
	list("medical_conditions", &p.MedicalConditions)
	list("allergies", &p.Allergies)
	list("tags", &p.Tags)
	if raw, ok := n["dob"]; ok {
		if d, ok := form.ParseDate(raw); ok {
			p.DOB = &d
		} else {
			p.DOB = nil
		}
	}

	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.MedicalConditions == nil {
		p.MedicalConditions = []string{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	return p, nil
}

// today truncates now to a calendar date, used for last_visit on
// registration.
func today(now time.Time) *time.Time {
	y, m, d := now.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
