package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

var (
	Genders  = []string{"Male", "Female", "Other", "Prefer not to say"}
	Statuses = []string{StatusActive, StatusInactive}
)

// Patient maps to the patient table and collection.
type Patient struct {
	ID                uuid.UUID  `db:"id" json:"id" bson:"_id"`
	FirstName         string     `db:"first_name" json:"first_name" bson:"first_name"`
	LastName          string     `db:"last_name" json:"last_name" bson:"last_name"`
	DOB               *time.Time `db:"dob" json:"dob,omitempty" bson:"dob,omitempty"`
	Gender            string     `db:"gender" json:"gender" bson:"gender"`
	Phone             string     `db:"phone" json:"phone" bson:"phone"`
	Email             string     `db:"email" json:"email,omitempty" bson:"email,omitempty"`
	Address           string     `db:"address" json:"address,omitempty" bson:"address,omitempty"`
	InsuranceProvider string     `db:"insurance_provider" json:"insurance_provider,omitempty" bson:"insurance_provider,omitempty"`
	InsuranceNumber   string     `db:"insurance_number" json:"insurance_number,omitempty" bson:"insurance_number,omitempty"`
	MedicalConditions []string   `db:"medical_conditions" json:"medical_conditions" bson:"medical_conditions"`
	Allergies         []string   `db:"allergies" json:"allergies" bson:"allergies"`
	LastVisit         *time.Time `db:"last_visit" json:"last_visit,omitempty" bson:"last_visit,omitempty"`
	Status            string     `db:"status" json:"status" bson:"status"`
	Tags              []string   `db:"tags" json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

func (p *Patient) GetID() uuid.UUID   { return p.ID }
func (p *Patient) SetID(id uuid.UUID) { p.ID = id }

func (p *Patient) Stamp(createdAt, updatedAt time.Time) {
	p.CreatedAt, p.UpdatedAt = createdAt, updatedAt
}

// Name is the display name, "First Last".
func (p *Patient) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Field exposes values by their JSON name for record-store queries.
func (p *Patient) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "name":
		return p.Name(), true
	case "first_name":
		return p.FirstName, true
	case "last_name":
		return p.LastName, true
	case "dob":
		return p.DOB, true
	case "gender":
		return p.Gender, true
	case "phone":
		return p.Phone, true
	case "email":
		return p.Email, true
	case "address":
		return p.Address, true
	case "insurance_provider":
		return p.InsuranceProvider, true
	case "insurance_number":
		return p.InsuranceNumber, true
	case "medical_conditions":
		return p.MedicalConditions, true
	case "allergies":
		return p.Allergies, true
	case "last_visit":
		return p.LastVisit, true
	case "status":
		return p.Status, true
	case "tags":
		return p.Tags, true
	case "created_at":
		return p.CreatedAt, true
	case "updated_at":
		return p.UpdatedAt, true
	}
	return nil, false
}

// Clone returns a deep copy.
func (p *Patient) Clone() *Patient {
	c := *p
	c.MedicalConditions = append([]string(nil), p.MedicalConditions...)
	c.Allergies = append([]string(nil), p.Allergies...)
	c.Tags = append([]string(nil), p.Tags...)
	if p.DOB != nil {
		d := *p.DOB
		c.DOB = &d
	}
	if p.LastVisit != nil {
		v := *p.LastVisit
		c.LastVisit = &v
	}
	return &c
}

// Summary is the compact form kept in the active-patient history and shown
// in the patient context banner.
type Summary struct {
	ID     uuid.UUID  `json:"id"`
	Name   string     `json:"name"`
	DOB    *time.Time `json:"dob,omitempty"`
	Gender string     `json:"gender,omitempty"`
	Phone  string     `json:"phone,omitempty"`
	Status string     `json:"status,omitempty"`
}

func (p *Patient) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name(), DOB: p.DOB, Gender: p.Gender, Phone: p.Phone, Status: p.Status}
}
