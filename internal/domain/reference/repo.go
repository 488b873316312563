package reference

import (
	"github.com/caretrack/caretrack/internal/platform/store"
)

func NewProviderMemoryRepo() *store.Memory[*Provider] {
	return store.NewMemory((*Provider).Clone)
}

func NewLabelMemoryRepo() *store.Memory[*Label] {
	return store.NewMemory((*Label).Clone)
}

// Table names of the label-shaped reference entities.
const (
	TypeTable   = "appointment_type"
	StatusTable = "appointment_status"
)

var ProviderColumns = store.Columns{
	"id":         "id",
	"name":       "name",
	"specialty":  "specialty",
	"color":      "color",
	"available":  "available",
	"tags":       "array_to_string(tags, ', ')",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

var LabelColumns = store.Columns{
	"id":         "id",
	"name":       "name",
	"color":      "color",
	"tags":       "array_to_string(tags, ', ')",
	"created_at": "created_at",
	"updated_at": "updated_at",
}
