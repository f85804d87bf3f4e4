package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used in storage, flags and JSON.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date at UTC midnight. All engine dates are
// normalized through Day so day arithmetic never sees DST or zone offsets.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar date.
func Today() time.Time {
	return Day(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the whole number of days from a to b (negative if b is before a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// FirstOfMonth returns the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

// LastOfMonth returns the last day of t's month.
func LastOfMonth(t time.Time) time.Time {
	return FirstOfMonth(t).AddDate(0, 1, -1)
}

// EachDay calls fn for every calendar date in [from, to], ascending.
func EachDay(from, to time.Time, fn func(day time.Time)) {
	for day := Day(from); !day.After(Day(to)); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}
