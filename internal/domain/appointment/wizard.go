package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/reference"
	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// Wizard steps.
const (
	StepPatient = 1
	StepDetails = 2
	StepConfirm = 3
)

// Wizard actions.
const (
	ActionShow   = "show"
	ActionNext   = "next"
	ActionBack   = "back"
	ActionSubmit = "submit"
)

// NewPatient is the patient picker option that opens the registration form.
const NewPatient = "__new__"

// SlotLength is the length of a booked time slot.
const SlotLength = 30 * time.Minute

const slotLayout = "2006-01-02 3:04 PM"

var StepTitles = []string{"Patient Information", "Appointment Details", "Confirmation"}

var PatientTypes = []string{"Emergency", "Outpatient", "Inpatient", "Specialist Referral"}

var TimeSlots = []string{
	"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"1:00 PM", "1:30 PM", "2:00 PM", "2:30 PM", "3:00 PM", "3:30 PM",
}

var patientStep = form.Schema{
	{Name: "patient_name", Label: "Patient name", Type: form.Text, Required: true},
	{Name: "date_of_birth", Label: "Date of birth", Type: form.Date, Required: true},
	{Name: "gender", Label: "Gender", Type: form.Picklist, Required: true, Options: patient.Genders},
	{Name: "phone_number", Label: "Phone number", Type: form.Phone, Required: true},
	{Name: "email", Label: "Email", Type: form.Email},
}

func detailsStep(providerIDs []string, disabled bool) form.Schema {
	return form.Schema{
		{Name: "patient_type", Label: "Patient type", Type: form.Picklist, Required: true, Options: PatientTypes},
		{Name: "appointment_date", Label: "Appointment date", Type: form.Date, Required: true},
		{Name: "appointment_time", Label: "Appointment time", Type: form.Picklist, Required: true, Options: TimeSlots},
		{Name: "provider", Label: "Provider", Type: form.Picklist, Required: true, Options: providerIDs, Disabled: disabled},
		{Name: "reason", Label: "Reason for visit", Type: form.Text, Required: true},
		{Name: "notes", Label: "Additional notes", Type: form.MultilineText},
	}
}

// WizardRequest is one transition of the scheduling wizard. Values carries
// every field entered so far; the client keeps them between steps.
type WizardRequest struct {
	Step   int         `json:"step"`
	Action string      `json:"action"`
	Values form.Values `json:"values"`
}

// WizardState is what the client renders after a transition.
type WizardState struct {
	Step        int                   `json:"step"`
	Title       string                `json:"title"`
	Steps       []string              `json:"steps"`
	Fields      []form.Descriptor     `json:"fields,omitempty"`
	Providers   []*reference.Provider `json:"providers"`
	Values      form.Values           `json:"values"`
	Errors      form.Errors           `json:"errors,omitempty"`
	Summary     map[string]string     `json:"summary,omitempty"`
	Appointment *View                 `json:"appointment,omitempty"`
	Complete    bool                  `json:"complete"`
}

// Invalid reports whether the transition was blocked by validation.
func (w WizardState) Invalid() bool { return len(w.Errors) > 0 }

// existingPatient reports whether the values pick a registered patient,
// in which case the patient step needs no input.
func existingPatient(v form.Values) (uuid.UUID, bool) {
	s := v.String("patient_id")
	if s == "" || s == NewPatient {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	return id, err == nil
}

// providerOptions lists the providers offered for the chosen patient type.
// Nothing is offered until a type is chosen.
func (s *Service) providerOptions(ctx context.Context, v form.Values) ([]*reference.Provider, error) {
	if v.String("patient_type") == "" {
		return []*reference.Provider{}, nil
	}
	return s.refs.AvailableProviders(ctx)
}

func (s *Service) stepSchema(step int, providers []*reference.Provider, v form.Values) form.Schema {
	switch step {
	case StepPatient:
		return patientStep
	case StepDetails:
		ids := make([]string, len(providers))
		for i, p := range providers {
			ids[i] = p.ID.String()
		}
		return detailsStep(ids, v.String("patient_type") == "")
	}
	return nil
}

func (s *Service) validateStep(ctx context.Context, step int, providers []*reference.Provider, v form.Values) form.Errors {
	if step == StepPatient {
		if id, ok := existingPatient(v); ok {
			if _, err := s.patients.Get(ctx, id); err != nil {
				return form.Errors{"patient_id": "Patient not found"}
			}
			return nil
		}
	}
	schema := s.stepSchema(step, providers, v)
	if step == StepDetails && v.String("patient_type") == "" {
		// A disabled provider field cannot hold a value.
		v = cloneValues(v)
		delete(v, "provider")
	}
	err := schema.Validate(v)
	var fe form.Errors
	if !errors.As(err, &fe) {
		return nil
	}
	if _, ok := fe["email"]; ok {
		fe["email"] = "Email is invalid"
	}
	return fe
}

func cloneValues(v form.Values) form.Values {
	out := make(form.Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Advance applies one wizard transition. Next validates only the current
// step and Back never validates. Submit is accepted on the confirmation
// step, re-validates both input steps and books the appointment. A blocked
// transition returns the state with Errors set and a nil error.
func (s *Service) Advance(ctx context.Context, req WizardRequest) (WizardState, error) {
	step := req.Step
	if step < StepPatient {
		step = StepPatient
	}
	if step > StepConfirm {
		step = StepConfirm
	}
	v := req.Values
	if v == nil {
		v = form.Values{}
	}
	providers, err := s.providerOptions(ctx, v)
	if err != nil {
		return WizardState{}, err
	}

	switch req.Action {
	case ActionBack:
		if step > StepPatient {
			step--
		}
	case ActionNext:
		if step < StepConfirm {
			if errs := s.validateStep(ctx, step, providers, v); len(errs) > 0 {
				return s.state(ctx, step, providers, v, errs)
			}
			step++
		}
	case ActionSubmit:
		if step != StepConfirm {
			return WizardState{}, fmt.Errorf("%w: submit on step %d", store.ErrUnknownField, step)
		}
		for _, st := range []int{StepPatient, StepDetails} {
			if errs := s.validateStep(ctx, st, providers, v); len(errs) > 0 {
				return s.state(ctx, st, providers, v, errs)
			}
		}
		view, err := s.book(ctx, v, providers)
		if err != nil {
			var fe form.Errors
			if errors.As(err, &fe) {
				return s.state(ctx, step, providers, v, fe)
			}
			return WizardState{}, err
		}
		st, err := s.state(ctx, step, providers, v, nil)
		if err != nil {
			return WizardState{}, err
		}
		st.Appointment = &view
		st.Complete = true
		return st, nil
	case "", ActionShow:
	default:
		return WizardState{}, fmt.Errorf("%w: wizard action %q", store.ErrUnknownField, req.Action)
	}
	return s.state(ctx, step, providers, v, nil)
}

func (s *Service) state(ctx context.Context, step int, providers []*reference.Provider, v form.Values, errs form.Errors) (WizardState, error) {
	st := WizardState{
		Step:      step,
		Title:     StepTitles[step-1],
		Steps:     StepTitles,
		Providers: providers,
		Values:    v,
		Errors:    errs,
	}
	if schema := s.stepSchema(step, providers, v); schema != nil {
		st.Fields = schema.Describe()
	}
	if step == StepConfirm {
		sum, err := s.summary(ctx, v, providers)
		if err != nil {
			return WizardState{}, err
		}
		st.Summary = sum
	}
	return st, nil
}

func (s *Service) summary(ctx context.Context, v form.Values, providers []*reference.Provider) (map[string]string, error) {
	name := v.String("patient_name")
	if id, ok := existingPatient(v); ok {
		p, err := s.patients.Get(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if p != nil {
			name = p.Name()
		}
	}
	provider := ""
	for _, p := range providers {
		if p.ID.String() == v.String("provider") {
			provider = p.Name
		}
	}
	return map[string]string{
		"patient":      name,
		"patient_type": v.String("patient_type"),
		"date":         v.String("appointment_date"),
		"time":         v.String("appointment_time"),
		"provider":     provider,
		"reason":       v.String("reason"),
		"notes":        v.String("notes"),
	}, nil
}

// SlotStart combines a wizard date and time slot in loc.
func SlotStart(date, slot string, loc *time.Location) (time.Time, error) {
	d, ok := form.ParseDate(date)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid appointment date %q", date)
	}
	return time.ParseInLocation(slotLayout, d.Format("2006-01-02")+" "+slot, loc)
}

// book registers the patient when needed and creates the appointment.
func (s *Service) book(ctx context.Context, v form.Values, providers []*reference.Provider) (View, error) {
	start, err := SlotStart(v.String("appointment_date"), v.String("appointment_time"), s.loc)
	if err != nil {
		return View{}, form.Errors{"appointment_time": "Appointment time is required"}
	}

	patientID, ok := existingPatient(v)
	if !ok {
		p, err := s.RegisterPatient(ctx, patientValues(v))
		if err != nil {
			return View{}, err
		}
		patientID = p.ID
	}

	providerID, err := uuid.Parse(v.String("provider"))
	if err != nil {
		return View{}, form.Errors{"provider": "Provider is required"}
	}
	a := &Appointment{
		PatientID:  patientID,
		ProviderID: &providerID,
		Start:      start,
		End:        start.Add(SlotLength),
		Duration:   int(SlotLength / time.Minute),
		Reason:     v.String("reason"),
		Notes:      v.String("notes"),
	}
	t, err := s.refs.TypeByName(ctx, v.String("patient_type"))
	switch {
	case err == nil:
		a.TypeID = &t.ID
	case !errors.Is(err, store.ErrNotFound):
		return View{}, fmt.Errorf("appointment type: %w", err)
	}
	return s.create(ctx, a)
}

// inlineSchema registers a patient from the wizard's single name field. A
// one-word name has no last name.
var inlineSchema = func() form.Schema {
	out := make(form.Schema, len(patient.Schema))
	copy(out, patient.Schema)
	for i := range out {
		if out[i].Name == "last_name" {
			out[i].Required = false
		}
	}
	return out
}()

// patientValues maps the patient step onto the registration form. The last
// word of the name is the last name.
func patientValues(v form.Values) form.Values {
	first, last := splitName(v.String("patient_name"))
	return form.Values{
		"first_name": first,
		"last_name":  last,
		"dob":        v["date_of_birth"],
		"gender":     v["gender"],
		"phone":      v["phone_number"],
		"email":      v["email"],
	}
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// RegisterPatient creates a patient from the picker's inline form so it can
// be selected straight away.
func (s *Service) RegisterPatient(ctx context.Context, v form.Values) (*patient.Patient, error) {
	return s.patients.CreateWith(ctx, inlineSchema, v)
}
