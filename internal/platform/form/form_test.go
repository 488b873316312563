package form

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func providerSchema() Schema {
	return Schema{
		{Name: "name", Label: "Name", Type: Text, Required: true},
		{Name: "email", Label: "Email", Type: Email},
		{Name: "started", Label: "Start Date", Type: Date},
		{Name: "slots", Label: "Slots", Type: Number},
		{Name: "level", Label: "Level", Type: Picklist, Options: []string{"junior", "senior"}},
		{Name: "available", Label: "Available", Type: Boolean},
		{Name: "tags", Label: "Tags", Type: Tag},
		{Name: "bio", Label: "Bio", Type: MultilineText},
	}
}

func TestFieldCheck(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value any
		want  string
	}{
		{"required missing", Field{Label: "Name", Type: Text, Required: true}, nil, "Name is required"},
		{"required empty string", Field{Label: "Name", Type: Text, Required: true}, "", "Name is required"},
		{"required blank string", Field{Label: "Name", Type: Text, Required: true}, "   ", "Name is required"},
		{"required tabs and newlines", Field{Label: "Notes", Type: MultilineText, Required: true}, "\t\n ", "Notes is required"},
		{"required padded value is present", Field{Label: "Name", Type: Text, Required: true}, "  Ada ", ""},
		{"optional blank email", Field{Label: "Email", Type: Email}, "  ", ""},
		{"required false boolean is present", Field{Label: "Ok", Type: Boolean, Required: true}, false, ""},
		{"optional empty", Field{Label: "Email", Type: Email}, "", ""},
		{"email ok", Field{Label: "Email", Type: Email}, "a@b.co", ""},
		{"email no dot", Field{Label: "Email", Type: Email}, "a@b", "Please enter a valid email address"},
		{"email with space", Field{Label: "Email", Type: Email}, "a b@c.d", "Please enter a valid email address"},
		{"date ok", Field{Label: "D", Type: Date}, "2024-03-01", ""},
		{"date rfc3339", Field{Label: "D", Type: Date}, "2024-03-01T09:00:00Z", ""},
		{"date bad", Field{Label: "D", Type: Date}, "2024-13-45", "Please enter a valid date"},
		{"number string", Field{Label: "N", Type: Number}, "3.5", ""},
		{"number json", Field{Label: "N", Type: Number}, float64(2), ""},
		{"number bad", Field{Label: "N", Type: Number}, "abc", "Please enter a valid number"},
		{"number nan", Field{Label: "N", Type: Number}, "NaN", "Please enter a valid number"},
		{"picklist ok", Field{Label: "Level", Type: Picklist, Options: []string{"a"}}, "a", ""},
		{"picklist bad", Field{Label: "Level", Type: Picklist, Options: []string{"a"}}, "b", "Please select a valid level"},
		{"picklist without options", Field{Label: "Level", Type: Picklist}, "b", ""},
		{"phone presence only", Field{Label: "P", Type: Phone}, "not a number", ""},
		{"unknown type", Field{Label: "X", Type: "Color"}, "red", `unsupported field type "Color"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.Check(tt.value); got != tt.want {
				t.Errorf("Check(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestSchemaValidate_ReportsAllErrors(t *testing.T) {
	err := providerSchema().Validate(Values{"email": "bad", "slots": "x"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Error("expected error to match ErrInvalid")
	}
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected Errors, got %T", err)
	}
	if len(errs) != 3 {
		t.Errorf("expected 3 errors, got %v", errs)
	}
	for _, f := range []string{"name", "email", "slots"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("expected error for %s", f)
		}
	}
	if !strings.HasPrefix(err.Error(), "validation failed: email:") {
		t.Errorf("expected sorted message, got %q", err.Error())
	}
}

func TestSchemaValidate_OK(t *testing.T) {
	if err := providerSchema().Validate(Values{"name": "Dr. Who"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSchemaNormalize(t *testing.T) {
	got := providerSchema().Normalize(Values{
		"name":      "  Dr. Who ",
		"slots":     "4",
		"available": "true",
		"tags":      "cardio, , pediatrics ,",
		"unknown":   "dropped",
	})
	want := Values{
		"name":      "Dr. Who",
		"slots":     float64(4),
		"available": true,
		"tags":      []string{"cardio", "pediatrics"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %#v, want %#v", got, want)
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(" a, b ,,c "); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected split: %v", got)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestWidget(t *testing.T) {
	tests := []struct {
		field Field
		kind  string
		input string
	}{
		{Field{Type: Text}, "input", "text"},
		{Field{Type: Email}, "input", "email"},
		{Field{Type: Phone}, "input", "tel"},
		{Field{Type: Website}, "input", "text"},
		{Field{Type: MultilineText}, "textarea", ""},
		{Field{Type: Number}, "input", "number"},
		{Field{Type: Date}, "input", "date"},
		{Field{Type: Picklist}, "select", ""},
		{Field{Type: Boolean}, "checkbox", ""},
		{Field{Type: Tag}, "input", "text"},
	}
	for _, tt := range tests {
		w := tt.field.Widget()
		if w.Kind != tt.kind || w.InputType != tt.input {
			t.Errorf("%s: got %s/%s, want %s/%s", tt.field.Type, w.Kind, w.InputType, tt.kind, tt.input)
		}
	}
	tag := Field{Label: "Tags", Type: Tag}.Widget()
	if tag.Placeholder != "Enter Tags (comma-separated)" {
		t.Errorf("unexpected tag placeholder %q", tag.Placeholder)
	}
}

func TestSchemaOnly(t *testing.T) {
	s := providerSchema().Only("tags", "name")
	if len(s) != 2 || s[0].Name != "name" || s[1].Name != "tags" {
		t.Errorf("unexpected subset: %v", s)
	}
}
