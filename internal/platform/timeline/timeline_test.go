package timeline

import (
	"testing"
	"time"
)

type rec struct {
	title string
	date  time.Time
}

func recDate(r rec) time.Time { return r.date }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02T15:04", s)
	return t
}

func TestBuild_ByDayNewestFirst(t *testing.T) {
	items := []rec{
		{"a", day("2024-03-01T09:00")},
		{"b", day("2024-03-02T09:00")},
		{"c", day("2024-03-01T14:00")},
		{"d", time.Time{}},
	}
	groups := Build(items, recDate, Options{})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "2024-03-02" || groups[1].Key != "2024-03-01" {
		t.Errorf("expected newest first, got %s then %s", groups[0].Key, groups[1].Key)
	}
	if groups[1].Items[0].title != "a" || groups[1].Items[1].title != "c" {
		t.Error("expected insertion order within a group")
	}
	if groups[0].Label != "March 2, 2024" {
		t.Errorf("unexpected label %q", groups[0].Label)
	}
}

func TestBuild_ByMonthAscending(t *testing.T) {
	items := []rec{
		{"a", day("2024-04-10T09:00")},
		{"b", day("2024-03-02T09:00")},
		{"c", day("2024-03-28T09:00")},
	}
	groups := Build(items, recDate, Options{Granularity: ByMonth, OldestFirst: true})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Label != "March 2024" || len(groups[0].Items) != 2 {
		t.Errorf("unexpected first group %q with %d items", groups[0].Label, len(groups[0].Items))
	}
	if groups[1].Key != "2024-04" {
		t.Errorf("unexpected second group %q", groups[1].Key)
	}
}

func TestBuild_Location(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	items := []rec{{"late", day("2024-03-02T02:00")}}
	groups := Build(items, recDate, Options{Location: loc})
	if groups[0].Key != "2024-03-01" {
		t.Errorf("expected local day 2024-03-01, got %s", groups[0].Key)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		loading        bool
		total, matched int
		want           State
	}{
		{true, 5, 5, Loading},
		{false, 0, 0, Empty},
		{false, 4, 0, NoMatches},
		{false, 4, 2, Ready},
	}
	for _, tt := range tests {
		if got := Resolve(tt.loading, tt.total, tt.matched); got != tt.want {
			t.Errorf("Resolve(%v, %d, %d) = %s, want %s", tt.loading, tt.total, tt.matched, got, tt.want)
		}
	}
}

func TestNewView(t *testing.T) {
	v := NewView(3, []rec{}, recDate, Options{})
	if v.State != NoMatches || v.Total != 3 || len(v.Groups) != 0 {
		t.Errorf("unexpected view: %+v", v)
	}
}
