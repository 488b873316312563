package appointment

import (
	"github.com/caretrack/caretrack/internal/platform/store"
)

type Repository = store.Repository[*Appointment]

func NewMemoryRepo() *store.Memory[*Appointment] {
	return store.NewMemory((*Appointment).Clone)
}

var Columns = store.Columns{
	"id":                "id",
	"name":              "name",
	"patient_id":        "patient_id",
	"provider_id":       "provider_id",
	"type_id":           "type_id",
	"status_id":         "status_id",
	"start":             "start_time",
	"end":               "end_time",
	"duration":          "duration",
	"reason":            "reason",
	"notes":             "notes",
	"is_recurring":      "is_recurring",
	"recurring_pattern": "recurring_pattern",
	"wait_time":         "wait_time",
	"created_at":        "created_at",
	"updated_at":        "updated_at",
}
