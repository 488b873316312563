package listing

import "time"

// Bucket names a relative date range.
type Bucket string

const (
	Today     Bucket = "today"
	Tomorrow  Bucket = "tomorrow"
	Yesterday Bucket = "yesterday"
	ThisWeek  Bucket = "thisWeek"
	ThisMonth Bucket = "thisMonth"
)

func ValidBucket(v string) bool {
	switch Bucket(v) {
	case Today, Tomorrow, Yesterday, ThisWeek, ThisMonth:
		return true
	}
	return false
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Sunday midnight that begins t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// InBucket reports whether t falls in bucket relative to now. t is viewed in
// now's location. A zero t is in no bucket.
func InBucket(b Bucket, t, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	t = t.In(now.Location())
	today := StartOfDay(now)
	within := func(from, to time.Time) bool {
		return !t.Before(from) && t.Before(to)
	}
	switch b {
	case Today:
		return within(today, today.AddDate(0, 0, 1))
	case Tomorrow:
		return within(today.AddDate(0, 0, 1), today.AddDate(0, 0, 2))
	case Yesterday:
		return within(today.AddDate(0, 0, -1), today)
	case ThisWeek:
		week := StartOfWeek(now)
		return within(week, week.AddDate(0, 0, 7))
	case ThisMonth:
		return t.Year() == now.Year() && t.Month() == now.Month()
	}
	return false
}
