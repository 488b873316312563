package medicalrecord

import "github.com/caretrack/caretrack/internal/platform/store"

type Repository = store.Repository[*MedicalRecord]

func NewMemoryRepo() *store.Memory[*MedicalRecord] {
	return store.NewMemory((*MedicalRecord).Clone)
}

var Columns = store.Columns{
	"id":          "id",
	"patient_id":  "patient_id",
	"type":        "type",
	"title":       "title",
	"description": "description",
	"date":        "date",
	"provider":    "provider",
	"notes":       "notes",
	"results":     "results",
	"dosage":      "dosage",
	"frequency":   "frequency",
	"duration":    "duration",
	"tags":        "array_to_string(tags, ', ')",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}
