package calendar

import (
	"math/rand"
	"testing"
	"time"

	"github.com/caretrack/caretrack/internal/platform/store"
)

type appt struct {
	id    int
	start time.Time
}

func (a appt) StartTime() time.Time { return a.start }

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildMonthGrid(t *testing.T) {
	tests := []struct {
		anchor     time.Time
		first      string
		last       string
		cellsCount int
	}{
		// March 2024 starts on a Friday and ends on a Sunday.
		{at("2024-03-15T00:00"), "2024-02-25", "2024-04-06", 42},
		// February 2015 starts on Sunday and ends on Saturday.
		{at("2015-02-10T00:00"), "2015-02-01", "2015-02-28", 28},
		{at("2024-09-01T00:00"), "2024-09-01", "2024-10-05", 35},
	}
	for _, tt := range tests {
		days := BuildMonthGrid(tt.anchor)
		if len(days)%7 != 0 {
			t.Errorf("%s: %d cells is not a whole number of weeks", tt.anchor.Format("2006-01"), len(days))
		}
		if len(days) != tt.cellsCount {
			t.Errorf("%s: expected %d cells, got %d", tt.anchor.Format("2006-01"), tt.cellsCount, len(days))
		}
		if got := days[0].Format(DayKeyLayout); got != tt.first {
			t.Errorf("expected first cell %s, got %s", tt.first, got)
		}
		if got := days[len(days)-1].Format(DayKeyLayout); got != tt.last {
			t.Errorf("expected last cell %s, got %s", tt.last, got)
		}
		if days[0].Weekday() != time.Sunday {
			t.Errorf("expected grid to start on Sunday, got %s", days[0].Weekday())
		}
	}
}

func TestAppointmentsForDay_IsExactSubset(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := at("2024-03-01T00:00")
	var items []appt
	for i := 0; i < 200; i++ {
		items = append(items, appt{id: i, start: base.Add(time.Duration(rng.Intn(10*24*60)) * time.Minute)})
	}
	items = append(items, appt{id: 999})

	for d := 0; d < 10; d++ {
		day := base.AddDate(0, 0, d)
		got := AppointmentsForDay(day, items)

		var want []int
		for _, it := range items {
			y, m, dd := it.start.Date()
			if !it.start.IsZero() && y == day.Year() && m == day.Month() && dd == day.Day() {
				want = append(want, it.id)
			}
		}
		if len(got) != len(want) {
			t.Fatalf("day %d: expected %d items, got %d", d, len(want), len(got))
		}
		for i := range got {
			if got[i].id != want[i] {
				t.Fatalf("day %d: order differs at %d", d, i)
			}
		}
	}
}

func TestAppointmentsForDay_CrossMidnightOnStartDayOnly(t *testing.T) {
	items := []appt{{id: 1, start: at("2024-03-01T23:30")}}
	if len(AppointmentsForDay(at("2024-03-01T00:00"), items)) != 1 {
		t.Error("expected item on its start day")
	}
	if len(AppointmentsForDay(at("2024-03-02T00:00"), items)) != 0 {
		t.Error("expected item absent from the following day")
	}
	if len(AppointmentsForDay(time.Time{}, items)) != 0 {
		t.Error("expected zero day to match nothing")
	}
}

func TestGroupByDay_Scenario(t *testing.T) {
	items := []appt{
		{1, at("2024-03-01T09:00")},
		{2, at("2024-03-01T14:00")},
		{3, at("2024-03-02T09:00")},
	}
	groups := GroupByDay(items, store.Asc, time.UTC)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "2024-03-01" || len(groups[0].Items) != 2 {
		t.Errorf("unexpected first group: %s with %d items", groups[0].Key, len(groups[0].Items))
	}
	if groups[1].Key != "2024-03-02" || len(groups[1].Items) != 1 {
		t.Errorf("unexpected second group: %s with %d items", groups[1].Key, len(groups[1].Items))
	}
	if groups[0].Items[0].id != 1 || groups[0].Items[1].id != 2 {
		t.Error("expected input order within a group")
	}

	desc := GroupByDay(items, store.Desc, time.UTC)
	if desc[0].Key != "2024-03-02" {
		t.Errorf("expected newest group first, got %s", desc[0].Key)
	}
}

func TestMonthView_PreviewAndMore(t *testing.T) {
	var items []appt
	for i := 0; i < 5; i++ {
		items = append(items, appt{i, at("2024-03-12T09:00").Add(time.Duration(i) * time.Hour)})
	}
	items = append(items, appt{10, at("2024-02-27T09:00")})

	m := MonthView(at("2024-03-05T00:00"), items, at("2024-03-12T12:00"))
	if m.Label != "March 2024" || m.Prev != "2024-02" || m.Next != "2024-04" {
		t.Errorf("unexpected header: %s %s %s", m.Label, m.Prev, m.Next)
	}
	var found bool
	for _, c := range m.Cells {
		switch c.Key {
		case "2024-03-12":
			found = true
			if len(c.Preview) != PreviewSize || c.More != 2 || c.Total != 5 {
				t.Errorf("expected 3 previews and +2 more, got %d and %d", len(c.Preview), c.More)
			}
			if !c.IsToday || !c.InMonth {
				t.Error("expected cell to be today and in month")
			}
		case "2024-02-27":
			if c.InMonth || c.Total != 1 {
				t.Errorf("expected leading cell outside month with 1 item, got in_month=%v total=%d", c.InMonth, c.Total)
			}
		}
	}
	if !found {
		t.Fatal("expected a cell for 2024-03-12")
	}

	day := SelectDay(at("2024-03-12T00:00"), items)
	if len(day.Items) != 5 {
		t.Errorf("expected day view to list all 5 items, got %d", len(day.Items))
	}
}

func TestMonthNavigation(t *testing.T) {
	jan31 := at("2024-01-31T10:00")
	if got := NextMonth(jan31).Format("2006-01-02"); got != "2024-02-01" {
		t.Errorf("expected 2024-02-01, got %s", got)
	}
	if got := PrevMonth(at("2024-03-31T10:00")).Format("2006-01-02"); got != "2024-02-01" {
		t.Errorf("expected 2024-02-01, got %s", got)
	}
	m, err := ParseMonth("", at("2024-07-19T08:00"), time.UTC)
	if err != nil || m.Format("2006-01") != "2024-07" {
		t.Errorf("expected current month, got %v %v", m, err)
	}
	if _, err := ParseMonth("July", time.Now(), time.UTC); err == nil {
		t.Error("expected error for malformed month")
	}
}
