package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/store"
)

func stepOneValues() form.Values {
	return form.Values{
		"patient_id":    NewPatient,
		"patient_name":  "John Q Public",
		"date_of_birth": "1970-01-20",
		"gender":        "Male",
		"phone_number":  "555-0199",
	}
}

func TestWizard_NextValidatesCurrentStepOnly(t *testing.T) {
	f := newFixture(t)
	st, err := f.svc.Advance(context.Background(), WizardRequest{Step: StepPatient, Action: ActionNext, Values: form.Values{"email": "nope"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Step != StepPatient || !st.Invalid() {
		t.Fatalf("expected to stay on step 1 with errors, got step %d", st.Step)
	}
	want := map[string]string{
		"patient_name":  "Patient name is required",
		"date_of_birth": "Date of birth is required",
		"gender":        "Gender is required",
		"phone_number":  "Phone number is required",
		"email":         "Email is invalid",
	}
	for field, msg := range want {
		if st.Errors[field] != msg {
			t.Errorf("expected %q for %s, got %q", msg, field, st.Errors[field])
		}
	}
	if _, ok := st.Errors["reason"]; ok {
		t.Error("expected step 2 fields not to be validated on step 1")
	}

	st, _ = f.svc.Advance(context.Background(), WizardRequest{Step: StepPatient, Action: ActionNext, Values: stepOneValues()})
	if st.Step != StepDetails || st.Invalid() {
		t.Fatalf("expected step 2, got step %d with %v", st.Step, st.Errors)
	}
}

func TestWizard_NextRejectsBlankRequiredFields(t *testing.T) {
	f := newFixture(t)
	v := stepOneValues()
	v["patient_name"] = "   "
	v["phone_number"] = "  "
	st, err := f.svc.Advance(context.Background(), WizardRequest{Step: StepPatient, Action: ActionNext, Values: v})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Step != StepPatient {
		t.Fatalf("expected to stay on step 1, got step %d", st.Step)
	}
	if st.Errors["patient_name"] != "Patient name is required" || st.Errors["phone_number"] != "Phone number is required" {
		t.Errorf("unexpected errors %v", st.Errors)
	}
}

func TestWizard_BackNeverValidates(t *testing.T) {
	f := newFixture(t)
	st, err := f.svc.Advance(context.Background(), WizardRequest{Step: StepDetails, Action: ActionBack})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Step != StepPatient || st.Invalid() {
		t.Errorf("expected step 1 without errors, got step %d %v", st.Step, st.Errors)
	}
	st, _ = f.svc.Advance(context.Background(), WizardRequest{Step: StepPatient, Action: ActionBack})
	if st.Step != StepPatient {
		t.Errorf("expected back on step 1 to stay, got %d", st.Step)
	}
}

func TestWizard_ProviderGatedOnPatientType(t *testing.T) {
	f := newFixture(t)
	open := f.provider(t, "Dr. Adams", true)
	f.provider(t, "Dr. Busy", false)

	v := stepOneValues()
	v["provider"] = open.ID.String()
	st, _ := f.svc.Advance(context.Background(), WizardRequest{Step: StepDetails, Action: ActionNext, Values: v})
	if len(st.Providers) != 0 {
		t.Errorf("expected no providers before a patient type, got %d", len(st.Providers))
	}
	var providerField *form.Descriptor
	for i := range st.Fields {
		if st.Fields[i].Name == "provider" {
			providerField = &st.Fields[i]
		}
	}
	if providerField == nil || !providerField.Disabled {
		t.Fatal("expected a disabled provider field")
	}
	if st.Errors["provider"] != "Provider is required" || st.Errors["patient_type"] != "Patient type is required" {
		t.Errorf("unexpected errors %v", st.Errors)
	}

	v["patient_type"] = "Outpatient"
	st, _ = f.svc.Advance(context.Background(), WizardRequest{Step: StepDetails, Action: ActionShow, Values: v})
	if len(st.Providers) != 1 || st.Providers[0].ID != open.ID {
		t.Errorf("expected only the available provider, got %d", len(st.Providers))
	}
}

func TestWizard_SubmitBooksNewPatient(t *testing.T) {
	f := newFixture(t)
	dr := f.provider(t, "Dr. Adams", true)
	outpatient := f.label(t, f.refs.Types, "Outpatient", "info")

	v := stepOneValues()
	v["patient_type"] = "Outpatient"
	v["appointment_date"] = "2024-03-05"
	v["appointment_time"] = "10:30 AM"
	v["provider"] = dr.ID.String()
	v["reason"] = "Annual physical"

	st, err := f.svc.Advance(context.Background(), WizardRequest{Step: StepDetails, Action: ActionNext, Values: v})
	if err != nil || st.Step != StepConfirm {
		t.Fatalf("expected confirmation step, got %d (%v)", st.Step, err)
	}
	if st.Summary["provider"] != "Dr. Adams" || st.Summary["patient"] != "John Q Public" {
		t.Errorf("unexpected summary %v", st.Summary)
	}

	st, err = f.svc.Advance(context.Background(), WizardRequest{Step: StepConfirm, Action: ActionSubmit, Values: v})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Complete || st.Appointment == nil {
		t.Fatalf("expected a booked appointment, got %+v", st)
	}
	a := st.Appointment
	if !a.Start.Equal(time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)) || a.End.Sub(a.Start) != SlotLength {
		t.Errorf("unexpected slot %s-%s", a.Start, a.End)
	}
	if a.PatientName != "John Q Public" || a.Name != "Appointment for John Q Public" {
		t.Errorf("unexpected patient %q / %q", a.PatientName, a.Name)
	}
	if a.Type.Name != "Outpatient" || a.TypeID == nil || *a.TypeID != outpatient.ID {
		t.Errorf("expected type resolved from patient type, got %+v", a.Type)
	}

	p, err := f.patients.Get(context.Background(), a.PatientID)
	if err != nil {
		t.Fatalf("expected registered patient: %v", err)
	}
	if p.FirstName != "John Q" || p.LastName != "Public" || p.Phone != "555-0199" {
		t.Errorf("unexpected patient %+v", p)
	}
}

func TestWizard_SubmitRevalidates(t *testing.T) {
	f := newFixture(t)
	v := stepOneValues()
	delete(v, "gender")

	st, err := f.svc.Advance(context.Background(), WizardRequest{Step: StepConfirm, Action: ActionSubmit, Values: v})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Complete || st.Step != StepPatient || st.Errors["gender"] != "Gender is required" {
		t.Errorf("expected to return to step 1 with a gender error, got step %d %v", st.Step, st.Errors)
	}

	_, err = f.svc.Advance(context.Background(), WizardRequest{Step: StepDetails, Action: ActionSubmit, Values: v})
	if !errors.Is(err, store.ErrUnknownField) {
		t.Errorf("expected submit outside confirmation to be rejected, got %v", err)
	}
	all, _, _ := f.repo.List(context.Background(), store.Query{})
	if len(all) != 0 {
		t.Errorf("expected nothing booked, got %d", len(all))
	}
}

func TestWizard_ExistingPatientSkipsRegistration(t *testing.T) {
	f := newFixture(t)
	dr := f.provider(t, "Dr. Adams", true)
	v := form.Values{
		"patient_id":       f.jane.ID.String(),
		"patient_type":     "Emergency",
		"appointment_date": "2024-03-05",
		"appointment_time": "1:00 PM",
		"provider":         dr.ID.String(),
		"reason":           "Chest pain",
	}
	st, err := f.svc.Advance(context.Background(), WizardRequest{Step: StepPatient, Action: ActionNext, Values: v})
	if err != nil || st.Step != StepDetails {
		t.Fatalf("expected step 1 satisfied by the picked patient, got %d %v", st.Step, st.Errors)
	}
	st, err = f.svc.Advance(context.Background(), WizardRequest{Step: StepConfirm, Action: ActionSubmit, Values: v})
	if err != nil || !st.Complete {
		t.Fatalf("expected booking, got %v %v", err, st.Errors)
	}
	if st.Appointment.PatientID != f.jane.ID || st.Appointment.FormattedTime != "13:00" {
		t.Errorf("unexpected booking %+v", st.Appointment)
	}
	all, err := f.patients.All(context.Background())
	if err != nil || len(all) != 1 {
		t.Errorf("expected no new patient, got %d", len(all))
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct{ in, first, last string }{
		{"Jane Doe", "Jane", "Doe"},
		{"  Mary Ann  Smith ", "Mary Ann", "Smith"},
		{"Cher", "Cher", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("splitName(%q) = %q, %q; want %q, %q", tt.in, first, last, tt.first, tt.last)
		}
	}
}
