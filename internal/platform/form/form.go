// Package form validates and normalizes values against a declarative field
// schema. The same schema drives the widget descriptors returned to clients.
package form

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is matched by every Errors value.
var ErrInvalid = errors.New("validation failed")

type FieldType string

const (
	Text          FieldType = "Text"
	Email         FieldType = "Email"
	Phone         FieldType = "Phone"
	Website       FieldType = "Website"
	MultilineText FieldType = "MultilineText"
	Number        FieldType = "Number"
	Date          FieldType = "Date"
	Picklist      FieldType = "Picklist"
	Boolean       FieldType = "Boolean"
	Tag           FieldType = "Tag"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// DateLayouts are accepted for Date fields.
var DateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04"}

type Field struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Disabled    bool      `json:"disabled,omitempty"`
}

// Widget describes how a client renders a field.
type Widget struct {
	Kind        string   `json:"kind"`
	InputType   string   `json:"input_type,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Rows        int      `json:"rows,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// Widget returns the field's input descriptor.
func (f Field) Widget() Widget {
	placeholder := f.Placeholder
	if placeholder == "" {
		placeholder = "Enter " + f.Label
	}
	switch f.Type {
	case Text, Website:
		return Widget{Kind: "input", InputType: "text", Placeholder: placeholder}
	case Email:
		return Widget{Kind: "input", InputType: "email", Placeholder: placeholder}
	case Phone:
		return Widget{Kind: "input", InputType: "tel", Placeholder: placeholder}
	case MultilineText:
		return Widget{Kind: "textarea", Placeholder: placeholder, Rows: 4}
	case Number:
		return Widget{Kind: "input", InputType: "number", Placeholder: placeholder}
	case Date:
		return Widget{Kind: "input", InputType: "date"}
	case Picklist:
		return Widget{Kind: "select", Placeholder: "Select " + f.Label, Options: f.Options}
	case Boolean:
		return Widget{Kind: "checkbox"}
	case Tag:
		if f.Placeholder == "" {
			placeholder = "Enter " + f.Label + " (comma-separated)"
		}
		return Widget{Kind: "input", InputType: "text", Placeholder: placeholder}
	}
	return Widget{Kind: "input", InputType: "text", Placeholder: placeholder}
}

// Check returns the error message for value, or "" when it is valid.
func (f Field) Check(value any) string {
	if isEmpty(value) {
		if f.Required {
			return f.Label + " is required"
		}
		return ""
	}
	switch f.Type {
	case Email:
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return "Please enter a valid email address"
		}
	case Date:
		if _, ok := ParseDate(value); !ok {
			return "Please enter a valid date"
		}
	case Number:
		if _, ok := ParseNumber(value); !ok {
			return "Please enter a valid number"
		}
	case Picklist:
		if len(f.Options) > 0 && !contains(f.Options, fmt.Sprint(value)) {
			return "Please select a valid " + strings.ToLower(f.Label)
		}
	case Boolean:
		if _, ok := parseBool(value); !ok {
			return "Please choose yes or no"
		}
	case Text, Phone, Website, MultilineText, Tag:
	default:
		return fmt.Sprintf("unsupported field type %q", f.Type)
	}
	return ""
}

// Whitespace-only strings count as empty.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ParseDate accepts a string in one of DateLayouts or a time.Time.
func ParseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ParseNumber accepts numeric JSON values and numeric strings. NaN and
// infinities are rejected.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(x)
		return b, err == nil
	}
	return false, false
}

// SplitList splits a comma-separated list, trimming entries and dropping
// empty ones.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Errors maps field names to messages.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Unwrap() error { return ErrInvalid }

// Err returns nil for an empty map so callers can return it directly.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
