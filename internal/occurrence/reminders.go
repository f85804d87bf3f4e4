package occurrence

import (
	"sort"
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

// Reminder is an unpaid bill occurrence falling inside its reminder window.
type Reminder struct {
	Bill       model.Bill
	Occurrence model.Occurrence
	DaysUntil  int
}

// Reminders returns unpaid occurrences due between today and today plus each
// bill's ReminderDaysBefore, inclusive. Bills with no reminder window use
// defaultDays.
func Reminders(bills []model.Bill, overrides model.OverrideSet, payments []model.Payment, today time.Time, defaultDays int) []Reminder {
	today = model.Day(today)
	idx := NewPaymentIndex(payments)

	var out []Reminder
	for _, b := range bills {
		if !b.IsActive {
			continue
		}
		window := b.ReminderDaysBefore
		if window <= 0 {
			window = defaultDays
		}
		for _, occ := range Expand(b.Obligation, overrides, idx, today, today.AddDate(0, 0, window)) {
			if occ.IsRealized {
				continue
			}
			occ.Amount = model.NonNegative(occ.Amount)
			out = append(out, Reminder{Bill: b, Occurrence: occ, DaysUntil: model.DaysBetween(today, occ.Date)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Occurrence.Date.Before(out[j].Occurrence.Date)
	})
	return out
}
