package medicalrecord

import (
	"time"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/icon"
)

// Record types.
const (
	TypeVisit       = "visit"
	TypeLab         = "lab"
	TypeMedication  = "medication"
	TypeProcedure   = "procedure"
	TypeImaging     = "imaging"
	TypeVaccination = "vaccination"
	TypeNote        = "note"
)

var Types = []string{TypeVisit, TypeLab, TypeMedication, TypeProcedure, TypeImaging, TypeVaccination, TypeNote}

var typeIcons = map[string]string{
	TypeMedication:  "pill",
	TypeVisit:       "stethoscope",
	TypeLab:         "flask",
	TypeProcedure:   "scissors",
	TypeImaging:     "scan",
	TypeVaccination: "syringe",
	TypeNote:        "file-text",
}

var typeColors = map[string]string{
	TypeMedication: "orange",
	TypeVisit:      "blue",
	TypeLab:        "purple",
	TypeProcedure:  "red",
	TypeImaging:    "indigo",
}

// TypeIcon returns the icon asset of a record type. Unknown types use the
// visit icon.
func TypeIcon(t string) string {
	name, ok := typeIcons[t]
	if !ok {
		name = typeIcons[TypeVisit]
	}
	return icon.Resolve(name)
}

// TypeColor returns the accent color of a record type, gray when none is
// assigned.
func TypeColor(t string) string {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return "gray"
}

// HasResults reports whether records of type t carry results.
func HasResults(t string) bool { return t == TypeLab || t == TypeImaging }

// HasDosage reports whether records of type t carry dosage, frequency and
// duration.
func HasDosage(t string) bool { return t == TypeMedication }

type MedicalRecord struct {
	ID          uuid.UUID `db:"id" json:"id" bson:"_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id" bson:"patient_id"`
	Type        string    `db:"type" json:"type" bson:"type"`
	Title       string    `db:"title" json:"title" bson:"title"`
	Description string    `db:"description" json:"description,omitempty" bson:"description,omitempty"`
	Date        time.Time `db:"date" json:"date" bson:"date"`
	Provider    string    `db:"provider" json:"provider,omitempty" bson:"provider,omitempty"`
	Notes       string    `db:"notes" json:"notes,omitempty" bson:"notes,omitempty"`
	Results     string    `db:"results" json:"results,omitempty" bson:"results,omitempty"`
	Dosage      string    `db:"dosage" json:"dosage,omitempty" bson:"dosage,omitempty"`
	Frequency   string    `db:"frequency" json:"frequency,omitempty" bson:"frequency,omitempty"`
	Duration    string    `db:"duration" json:"duration,omitempty" bson:"duration,omitempty"`
	Tags        []string  `db:"tags" json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

func (r *MedicalRecord) GetID() uuid.UUID   { return r.ID }
func (r *MedicalRecord) SetID(id uuid.UUID) { r.ID = id }
func (r *MedicalRecord) Stamp(c, u time.Time) {
	r.CreatedAt, r.UpdatedAt = c, u
}

func (r *MedicalRecord) Field(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "patient_id":
		return r.PatientID, true
	case "type":
		return r.Type, true
	case "title":
		return r.Title, true
	case "description":
		return r.Description, true
	case "date":
		return r.Date, true
	case "provider":
		return r.Provider, true
	case "notes":
		return r.Notes, true
	case "results":
		return r.Results, true
	case "dosage":
		return r.Dosage, true
	case "frequency":
		return r.Frequency, true
	case "duration":
		return r.Duration, true
	case "tags":
		return r.Tags, true
	case "created_at":
		return r.CreatedAt, true
	case "updated_at":
		return r.UpdatedAt, true
	}
	return nil, false
}

func (r *MedicalRecord) Clone() *MedicalRecord {
	c := *r
	c.Tags = append([]string(nil), r.Tags...)
	return &c
}

// Entry is a record as placed on the timeline.
type Entry struct {
	*MedicalRecord
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func NewEntry(r *MedicalRecord) Entry {
	return Entry{MedicalRecord: r, Icon: TypeIcon(r.Type), Color: TypeColor(r.Type)}
}
