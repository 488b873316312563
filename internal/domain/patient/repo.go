package patient

import (
	"github.com/caretrack/caretrack/internal/platform/store"
)

// Repository is the record-store boundary for patients.
type Repository = store.Repository[*Patient]

// NewMemoryRepo returns an in-process repository.
func NewMemoryRepo() *store.Memory[*Patient] {
	return store.NewMemory((*Patient).Clone)
}

// Columns maps query fields to patient table columns.
var Columns = store.Columns{
	"id":                 "id",
	"name":               "(first_name || ' ' || last_name)",
	"first_name":         "first_name",
	"last_name":          "last_name",
	"dob":                "dob",
	"gender":             "gender",
	"phone":              "phone",
	"email":              "email",
	"address":            "address",
	"insurance_provider": "insurance_provider",
	"insurance_number":   "insurance_number",
	"medical_conditions": "array_to_string(medical_conditions, ', ')",
	"allergies":          "array_to_string(allergies, ', ')",
	"last_visit":         "last_visit",
	"status":             "status",
	"tags":               "array_to_string(tags, ', ')",
	"created_at":         "created_at",
	"updated_at":         "updated_at",
}
