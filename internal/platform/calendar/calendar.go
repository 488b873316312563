// Package calendar buckets dated items into a Sunday-first month grid and
// per-day lists.
package calendar

import (
	"sort"
	"time"

	"github.com/caretrack/caretrack/internal/platform/store"
)

// PreviewSize is the number of items shown in a grid cell before the
// remainder is summarised as "+N more".
const PreviewSize = 3

// DayKeyLayout formats the key of a day bucket.
const DayKeyLayout = "2006-01-02"

// Dated is implemented by anything placed on the calendar.
type Dated interface {
	StartTime() time.Time
}

// Cell is one day of the month grid.
type Cell[T Dated] struct {
	Date    time.Time `json:"date"`
	Key     string    `json:"key"`
	InMonth bool      `json:"in_month"`
	IsToday bool      `json:"is_today"`
	Preview []T       `json:"preview"`
	More    int       `json:"more"`
	Total   int       `json:"total"`
}

// Month is the data behind the month view.
type Month[T Dated] struct {
	Label string    `json:"label"`
	Month string    `json:"month"`
	Prev  string    `json:"prev"`
	Next  string    `json:"next"`
	Cells []Cell[T] `json:"cells"`
}

// Day is the unbounded list shown when a day is selected.
type Day[T Dated] struct {
	Date  time.Time `json:"date"`
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Items []T       `json:"items"`
}

// Group is one day bucket produced by GroupByDay.
type Group[T Dated] struct {
	Key   string    `json:"key"`
	Date  time.Time `json:"date"`
	Items []T       `json:"items"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in b's
// location.
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BuildMonthGrid returns the dates from the Sunday on or before the first of
// anchor's month through the Saturday on or after its last day.
func BuildMonthGrid(anchor time.Time) []time.Time {
	first := startOfMonth(anchor)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// AppointmentsForDay returns the items starting on day, in input order.
// Items that run past midnight appear only on their start day.
func AppointmentsForDay[T Dated](day time.Time, items []T) []T {
	out := []T{}
	for _, it := range items {
		if SameDay(it.StartTime(), day) {
			out = append(out, it)
		}
	}
	return out
}

// SelectDay builds the day view for day.
func SelectDay[T Dated](day time.Time, items []T) Day[T] {
	d := startOfDay(day)
	return Day[T]{
		Date:  d,
		Key:   d.Format(DayKeyLayout),
		Label: d.Format("Monday, January 2, 2006"),
		Items: AppointmentsForDay(day, items),
	}
}

// MonthView builds the grid for anchor's month with per-cell previews.
func MonthView[T Dated](anchor time.Time, items []T, now time.Time) Month[T] {
	first := startOfMonth(anchor)
	grid := BuildMonthGrid(anchor)
	buckets := bucketByKey(items, anchor.Location())

	cells := make([]Cell[T], len(grid))
	for i, d := range grid {
		key := d.Format(DayKeyLayout)
		all := buckets[key]
		preview := all
		if len(preview) > PreviewSize {
			preview = preview[:PreviewSize]
		}
		cells[i] = Cell[T]{
			Date:    d,
			Key:     key,
			InMonth: d.Month() == first.Month() && d.Year() == first.Year(),
			IsToday: SameDay(now, d),
			Preview: append([]T{}, preview...),
			More:    len(all) - len(preview),
			Total:   len(all),
		}
	}
	return Month[T]{
		Label: first.Format("January 2006"),
		Month: first.Format("2006-01"),
		Prev:  PrevMonth(first).Format("2006-01"),
		Next:  NextMonth(first).Format("2006-01"),
		Cells: cells,
	}
}

func bucketByKey[T Dated](items []T, loc *time.Location) map[string][]T {
	out := make(map[string][]T)
	for _, it := range items {
		t := it.StartTime()
		if t.IsZero() {
			continue
		}
		key := t.In(loc).Format(DayKeyLayout)
		out[key] = append(out[key], it)
	}
	return out
}

// GroupByDay buckets items by start day in loc. Groups are ordered by day
// in the given direction; items keep their input order within a group.
func GroupByDay[T Dated](items []T, dir store.Direction, loc *time.Location) []Group[T] {
	if loc == nil {
		loc = time.Local
	}
	buckets := bucketByKey(items, loc)
	groups := make([]Group[T], 0, len(buckets))
	for key, its := range buckets {
		date, _ := time.ParseInLocation(DayKeyLayout, key, loc)
		groups = append(groups, Group[T]{Key: key, Date: date, Items: its})
	}
	sort.Slice(groups, func(i, j int) bool {
		if dir == store.Desc {
			return groups[i].Key > groups[j].Key
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// PrevMonth returns the first of the month before t's.
func PrevMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, -1, 0)
}

// NextMonth returns the first of the month after t's.
func NextMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0)
}

// ParseMonth parses "2006-01" in loc. An empty value yields the month of now.
func ParseMonth(v string, now time.Time, loc *time.Location) (time.Time, error) {
	if v == "" {
		return startOfMonth(now.In(loc)), nil
	}
	return time.ParseInLocation("2006-01", v, loc)
}
