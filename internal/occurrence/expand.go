// Package occurrence expands recurring incomes and bills into dated
// occurrences with resolved amounts and realization status.
package occurrence

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/recurrence"
)

// Expand lists every occurrence of o in [from, to], ascending by date. The
// amount on each date is the override if one exists, else the base amount.
func Expand(o model.Obligation, overrides model.OverrideSet, realized Lookup, from, to time.Time) []model.Occurrence {
	sched := recurrence.Of(o)
	var out []model.Occurrence
	for _, day := range sched.Enumerate(from, to) {
		occ := model.Occurrence{
			ObligationID: o.ID,
			Name:         o.Name,
			Date:         day,
			Amount:       model.RoundMoney(overrides.Amount(o.ID, day, o.Amount)),
		}
		if realized != nil {
			if r, ok := realized.Realized(o.ID, day); ok {
				d := r.Date
				occ.IsRealized = true
				occ.RealizedDate = &d
				occ.RealizedAccountID = r.AccountID
			}
		}
		out = append(out, occ)
	}
	return out
}

// BillAmount resolves a bill's amount on date. Bills are outflow magnitudes,
// so a negative override clamps to zero.
func BillAmount(b model.Bill, overrides model.OverrideSet, date time.Time) decimal.Decimal {
	return model.NonNegative(model.RoundMoney(overrides.Amount(b.ID, date, b.Amount)))
}

// Bills expands every active bill, realized through payments, merged into one
// date-ordered list.
func Bills(bills []model.Bill, overrides model.OverrideSet, payments []model.Payment, from, to time.Time) []model.Occurrence {
	idx := NewPaymentIndex(payments)
	var out []model.Occurrence
	for _, b := range bills {
		if !b.IsActive {
			continue
		}
		occs := Expand(b.Obligation, overrides, idx, from, to)
		for i := range occs {
			occs[i].Amount = model.NonNegative(occs[i].Amount)
		}
		out = append(out, occs...)
	}
	sortByDate(out)
	return out
}

// Incomes expands every active income, realized through INCOME transactions,
// merged into one date-ordered list.
func Incomes(incomes []model.Income, overrides model.OverrideSet, txns []model.Transaction, from, to time.Time) []model.Occurrence {
	idx := NewIncomeIndex(txns)
	var out []model.Occurrence
	for _, in := range incomes {
		if !in.IsActive {
			continue
		}
		out = append(out, Expand(in.Obligation, overrides, idx, from, to)...)
	}
	sortByDate(out)
	return out
}

func sortByDate(occs []model.Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		return occs[i].Date.Before(occs[j].Date)
	})
}
