package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnknownField = errors.New("unknown field")
)

// Entity is implemented by every record type held by a Repository.
// Field exposes values by their wire name so that queries can be evaluated
// without reflection.
type Entity interface {
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	Stamp(createdAt, updatedAt time.Time)
	Field(name string) (any, bool)
}

// Repository is the record-store boundary for one entity type.
type Repository[T Entity] interface {
	List(ctx context.Context, q Query) ([]T, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (T, error)
	Create(ctx context.Context, v T) error
	Update(ctx context.Context, v T) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type Operator string

const (
	ExactMatch         Operator = "ExactMatch"
	Contains           Operator = "Contains"
	GreaterThanOrEqual Operator = "GreaterThanOrEqual"
	LessThanOrEqual    Operator = "LessThanOrEqual"
)

type Logic string

const (
	And Logic = "AND"
	Or  Logic = "OR"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Condition tests one field. ExactMatch succeeds when the field equals any
// of Values; the range and Contains operators use Values[0].
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Values   []any    `json:"values"`
}

// SubGroup is a conjunction of conditions.
type SubGroup struct {
	Conditions []Condition `json:"conditions"`
}

// Group combines sub-groups with AND or OR.
type Group struct {
	Operator  Logic      `json:"operator"`
	SubGroups []SubGroup `json:"sub_groups"`
}

type SortKey struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Query describes a list request. Where conditions and every group are
// combined with AND. A zero Limit means no limit.
type Query struct {
	Fields      []string    `json:"fields,omitempty"`
	OrderBy     []SortKey   `json:"order_by,omitempty"`
	Where       []Condition `json:"where,omitempty"`
	WhereGroups []Group     `json:"where_groups,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	Offset      int         `json:"offset,omitempty"`
}

func Eq(field string, values ...any) Condition {
	return Condition{Field: field, Operator: ExactMatch, Values: values}
}

func Like(field string, value any) Condition {
	return Condition{Field: field, Operator: Contains, Values: []any{value}}
}

func Gte(field string, value any) Condition {
	return Condition{Field: field, Operator: GreaterThanOrEqual, Values: []any{value}}
}

func Lte(field string, value any) Condition {
	return Condition{Field: field, Operator: LessThanOrEqual, Values: []any{value}}
}

// AnyOf builds an OR group where each condition stands alone, the shape
// used for free-text search across several fields.
func AnyOf(conds ...Condition) Group {
	g := Group{Operator: Or}
	for _, c := range conds {
		g.SubGroups = append(g.SubGroups, SubGroup{Conditions: []Condition{c}})
	}
	return g
}

// Validate checks operators, directions and that every referenced field is
// in allowed. A nil allowed set skips the field check.
func (q Query) Validate(allowed map[string]bool) error {
	check := func(field string) error {
		if allowed != nil && !allowed[field] {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		return nil
	}
	checkCond := func(c Condition) error {
		if err := check(c.Field); err != nil {
			return err
		}
		switch c.Operator {
		case ExactMatch:
		case Contains, GreaterThanOrEqual, LessThanOrEqual:
			if len(c.Values) == 0 {
				return fmt.Errorf("operator %s on %s needs a value", c.Operator, c.Field)
			}
		default:
			return fmt.Errorf("unsupported operator %q", c.Operator)
		}
		return nil
	}

	for _, f := range q.Fields {
		if err := check(f); err != nil {
			return err
		}
	}
	for _, s := range q.OrderBy {
		if err := check(s.Field); err != nil {
			return err
		}
		if s.Direction != "" && s.Direction != Asc && s.Direction != Desc {
			return fmt.Errorf("invalid sort direction %q", s.Direction)
		}
	}
	for _, c := range q.Where {
		if err := checkCond(c); err != nil {
			return err
		}
	}
	for _, g := range q.WhereGroups {
		if g.Operator != And && g.Operator != Or {
			return fmt.Errorf("invalid group operator %q", g.Operator)
		}
		for _, sg := range g.SubGroups {
			for _, c := range sg.Conditions {
				if err := checkCond(c); err != nil {
					return err
				}
			}
		}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("limit and offset must not be negative")
	}
	return nil
}
