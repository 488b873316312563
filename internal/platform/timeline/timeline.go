// Package timeline groups dated records into a chronological feed.
package timeline

import (
	"sort"
	"time"
)

type Granularity string

const (
	ByDay   Granularity = "day"
	ByMonth Granularity = "month"
)

// State tells the client which of the feed's placeholder views to show.
type State string

const (
	Loading   State = "loading"
	Empty     State = "empty"
	NoMatches State = "no_matches"
	Ready     State = "ready"
)

// Options controls grouping. The zero value groups by day, newest first, in
// UTC.
type Options struct {
	Granularity Granularity
	OldestFirst bool
	Location    *time.Location
}

type Group[T any] struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
	Items []T       `json:"items"`
}

// View is a grouped feed plus its display state.
type View[T any] struct {
	State   State      `json:"state"`
	Total   int        `json:"total"`
	Matched int        `json:"matched"`
	Groups  []Group[T] `json:"groups"`
}

func (o Options) layouts() (key, label string) {
	if o.Granularity == ByMonth {
		return "2006-01", "January 2006"
	}
	return "2006-01-02", "January 2, 2006"
}

// Build groups items by the calendar day or month of date(item). Items with
// a zero date are dropped. Items keep their input order inside a group.
func Build[T any](items []T, date func(T) time.Time, opts Options) []Group[T] {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	keyLayout, labelLayout := opts.layouts()

	index := map[string]int{}
	groups := []Group[T]{}
	for _, it := range items {
		d := date(it)
		if d.IsZero() {
			continue
		}
		d = d.In(loc)
		key := d.Format(keyLayout)
		i, ok := index[key]
		if !ok {
			start, _ := time.ParseInLocation(keyLayout, key, loc)
			i = len(groups)
			index[key] = i
			groups = append(groups, Group[T]{Key: key, Label: start.Format(labelLayout), Date: start})
		}
		groups[i].Items = append(groups[i].Items, it)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if opts.OldestFirst {
			return groups[i].Date.Before(groups[j].Date)
		}
		return groups[i].Date.After(groups[j].Date)
	})
	return groups
}

// Resolve picks the display state from the fetch status and counts.
func Resolve(loading bool, total, matched int) State {
	switch {
	case loading:
		return Loading
	case total == 0:
		return Empty
	case matched == 0:
		return NoMatches
	}
	return Ready
}

// NewView groups matched and records how it relates to the unfiltered total.
func NewView[T any](total int, matched []T, date func(T) time.Time, opts Options) View[T] {
	return View[T]{
		State:   Resolve(false, total, len(matched)),
		Total:   total,
		Matched: len(matched),
		Groups:  Build(matched, date, opts),
	}
}
