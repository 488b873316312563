package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/reference"
	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// Resource is one entity managed through the admin screens.
type Resource interface {
	Meta() Meta
	Columns() []Column
	Schema() form.Schema
	List(ctx context.Context) ([]store.Entity, error)
	Get(ctx context.Context, id uuid.UUID) (store.Entity, error)
	Create(ctx context.Context, v form.Values) (store.Entity, error)
	Update(ctx context.Context, id uuid.UUID, v form.Values) (store.Entity, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// crud adapts typed service functions to Resource.
type crud[T store.Entity] struct {
	meta    Meta
	columns []Column
	schema  form.Schema
	list    func(context.Context) ([]T, error)
	get     func(context.Context, uuid.UUID) (T, error)
	create  func(context.Context, form.Values) (T, error)
	update  func(context.Context, uuid.UUID, form.Values) (T, error)
	del     func(context.Context, uuid.UUID) (bool, error)
}

func (r *crud[T]) Meta() Meta          { return r.meta }
func (r *crud[T]) Columns() []Column   { return r.columns }
func (r *crud[T]) Schema() form.Schema { return r.schema }

func (r *crud[T]) List(ctx context.Context) ([]store.Entity, error) {
	items, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]store.Entity, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out, nil
}

func (r *crud[T]) Get(ctx context.Context, id uuid.UUID) (store.Entity, error) {
	return entity[T](r.get(ctx, id))
}

func (r *crud[T]) Create(ctx context.Context, v form.Values) (store.Entity, error) {
	return entity[T](r.create(ctx, v))
}

func (r *crud[T]) Update(ctx context.Context, id uuid.UUID, v form.Values) (store.Entity, error) {
	return entity[T](r.update(ctx, id, v))
}

func (r *crud[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.del(ctx, id)
}

// entity drops the typed zero value on error so callers never see a typed
// nil behind the interface.
func entity[T store.Entity](v T, err error) (store.Entity, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Catalog exposes a reference catalog.
func Catalog[T store.Entity](meta Meta, columns []Column, c *reference.Catalog[T]) Resource {
	return &crud[T]{
		meta:    meta,
		columns: columns,
		schema:  c.Schema(),
		list:    c.List,
		get:     c.Get,
		create:  c.Create,
		update:  c.Update,
		del:     c.Delete,
	}
}

// Patients exposes the patient registry through patient.AdminSchema.
func Patients(svc *patient.Service) Resource {
	return &crud[*patient.Patient]{
		meta:    PatientsMeta,
		columns: PatientColumns,
		schema:  patient.AdminSchema,
		list:    svc.All,
		get:     svc.Get,
		create: func(ctx context.Context, v form.Values) (*patient.Patient, error) {
			return svc.CreateWith(ctx, patient.AdminSchema, v)
		},
		update: func(ctx context.Context, id uuid.UUID, v form.Values) (*patient.Patient, error) {
			return svc.UpdateWith(ctx, patient.AdminSchema, id, v)
		},
		del: svc.Delete,
	}
}

var (
	PatientsMeta = Meta{
		Name: "patients", Title: "Manage Patients",
		Description: "Add, edit, and manage patient records",
		Icon:        "users", Color: "primary", Path: "/admin/patients",
	}
	ProvidersMeta = Meta{
		Name: "providers", Title: "Manage Providers",
		Description: "Add, edit, and manage healthcare providers",
		Icon:        "user-plus", Color: "secondary", Path: "/admin/providers",
	}
	TypesMeta = Meta{
		Name: "appointment-types", Title: "Appointment Types",
		Description: "Configure appointment types and durations",
		Icon:        "tag", Color: "blue", Path: "/admin/appointment-types",
	}
	StatusesMeta = Meta{
		Name: "appointment-statuses", Title: "Appointment Statuses",
		Description: "Manage appointment status options",
		Icon:        "check-circle", Color: "green", Path: "/admin/appointment-statuses",
	}
)

var (
	PatientColumns = []Column{
		{Key: "first_name", Label: "First Name", Sortable: true},
		{Key: "last_name", Label: "Last Name", Sortable: true},
		{Key: "email", Label: "Email", Sortable: true},
		{Key: "phone", Label: "Phone"},
		{Key: "status", Label: "Status", Sortable: true},
	}
	ProviderColumns = []Column{
		{Key: "name", Label: "Name", Sortable: true},
		{Key: "specialty", Label: "Specialty", Sortable: true},
		{Key: "color", Label: "Color"},
	}
	LabelColumns = []Column{
		{Key: "name", Label: "Name", Sortable: true},
		{Key: "color", Label: "Color"},
	}
)

// Standard registers the four entities of the admin dashboard in display
// order.
func Standard(patients *patient.Service, refs *reference.Service) []Resource {
	return []Resource{
		Patients(patients),
		Catalog(ProvidersMeta, ProviderColumns, refs.Providers),
		Catalog(TypesMeta, LabelColumns, refs.Types),
		Catalog(StatusesMeta, LabelColumns, refs.Statuses),
	}
}

func cell(e store.Entity, key string) string {
	v, ok := e.Field(key)
	if !ok {
		return ""
	}
	switch x := store.Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
