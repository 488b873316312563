package icon

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"calendar", "calendar"},
		{"Calendar", "calendar"},
		{"file-text", "file-text"},
		{"File-Text", "file-text"},
		{"user-plus", "user-plus"},
		{"UserPlus", "user-plus"},
		{"bar_chart", "bar-chart"},
		{"alert circle", "alert-circle"},
		{"trash-2", "trash-2"},
		{"", Fallback},
		{"does-not-exist", Fallback},
	}
	for _, tt := range tests {
		if got := Resolve(tt.name); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Known("users") || !Known("user") {
		t.Error("expected users and user to be known")
	}
	if Known("") || Known("sparkles") {
		t.Error("expected empty and unmapped names to be unknown")
	}
}
