// Package envelope implements envelope budgeting: period boundaries, balances,
// carry-over allocation, transfers and keyword auto-categorization.
package envelope

import (
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

// PeriodBounds returns the budget period anchored at date. Monthly periods are
// calendar months; weekly and bi-weekly periods start on date itself. Any
// other kind, Custom included, uses monthly bounds.
func PeriodBounds(date time.Time, kind model.Recurrence) (start, end time.Time) {
	date = model.Day(date)
	switch kind {
	case model.Weekly:
		return date, date.AddDate(0, 0, 6)
	case model.BiWeekly:
		return date, date.AddDate(0, 0, 13)
	default:
		return model.FirstOfMonth(date), model.LastOfMonth(date)
	}
}

func within(d, start, end time.Time) bool {
	d = model.Day(d)
	return !d.Before(start) && !d.After(end)
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
