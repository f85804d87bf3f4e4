// Package recurrence decides on which calendar dates a schedule fires.
package recurrence

import (
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

// Schedule is the part of an obligation that determines its firing dates.
type Schedule struct {
	Start time.Time
	End   *time.Time
	Kind  model.Recurrence
}

// Of returns the schedule of an obligation.
func Of(o model.Obligation) Schedule {
	return Schedule{Start: o.StartDate, End: o.EndDate, Kind: o.Recurrence}
}

// OccursOn reports whether the schedule fires on date.
//
// Monthly schedules fire on the start date's day-of-month only; a schedule
// starting on the 31st skips months without one. Custom never fires.
func (s Schedule) OccursOn(date time.Time) bool {
	date = model.Day(date)
	start := model.Day(s.Start)
	if date.Before(start) {
		return false
	}
	if s.End != nil && date.After(model.Day(*s.End)) {
		return false
	}

	switch s.Kind {
	case model.Weekly:
		return model.DaysBetween(start, date)%7 == 0
	case model.BiWeekly:
		return model.DaysBetween(start, date)%14 == 0
	case model.Monthly:
		return date.Day() == start.Day()
	default:
		return false
	}
}

// Enumerate returns every firing date in [from, to], ascending. It scans day
// by day so every kind, including ones without a closed form, shares one path.
func (s Schedule) Enumerate(from, to time.Time) []time.Time {
	var dates []time.Time
	model.EachDay(from, to, func(day time.Time) {
		if s.OccursOn(day) {
			dates = append(dates, day)
		}
	})
	return dates
}

// OccursOn is the free-function form of Schedule.OccursOn.
func OccursOn(start time.Time, end *time.Time, kind model.Recurrence, date time.Time) bool {
	return Schedule{Start: start, End: end, Kind: kind}.OccursOn(date)
}
