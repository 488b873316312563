package form

import (
	"fmt"
	"strings"
)

// Values is a submitted form keyed by field name.
type Values map[string]any

// String returns the trimmed string form of the named value.
func (v Values) String(name string) string {
	switch x := v[name].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	default:
		return fmt.Sprint(x)
	}
}

// Schema is an ordered field set.
type Schema []Field

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Only returns the fields named, in schema order.
func (s Schema) Only(names ...string) Schema {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out Schema
	for _, f := range s {
		if want[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks every field and returns all failures together as Errors.
// Values not named by the schema are ignored.
func (s Schema) Validate(v Values) error {
	errs := Errors{}
	for _, f := range s {
		if msg := f.Check(v[f.Name]); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs.Err()
}

// Normalize returns a copy of v restricted to the schema's fields, with
// numbers as float64, booleans as bool, tags as []string and text trimmed.
// It assumes v has passed Validate.
func (s Schema) Normalize(v Values) Values {
	out := make(Values, len(s))
	for _, f := range s {
		raw, ok := v[f.Name]
		if !ok {
			continue
		}
		out[f.Name] = normalizeValue(f.Type, raw)
	}
	return out
}

func normalizeValue(t FieldType, raw any) any {
	switch t {
	case Number:
		if isEmpty(raw) {
			return nil
		}
		n, _ := ParseNumber(raw)
		return n
	case Boolean:
		b, _ := parseBool(raw)
		return b
	case Tag:
		switch x := raw.(type) {
		case string:
			return SplitList(x)
		case []any:
			tags := make([]string, 0, len(x))
			for _, it := range x {
				if s := strings.TrimSpace(fmt.Sprint(it)); s != "" {
					tags = append(tags, s)
				}
			}
			return tags
		case []string:
			return SplitList(strings.Join(x, ","))
		}
		return []string{}
	case Text, Email, Phone, Website, MultilineText, Date, Picklist:
		if s, ok := raw.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return raw
}

// Descriptor is a field with its widget, as served to clients.
type Descriptor struct {
	Field
	Widget Widget `json:"widget"`
}

func (s Schema) Describe() []Descriptor {
	out := make([]Descriptor, len(s))
	for i, f := range s {
		out[i] = Descriptor{Field: f, Widget: f.Widget()}
	}
	return out
}
