// Package projection walks a date range day by day and projects the combined
// balance of a set of accounts from scheduled incomes, bills and realized
// transactions.
package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/ledger"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/occurrence"
	"github.com/theirongolddev/fundcast/internal/recurrence"
)

// DefaultWarningThreshold is the low-balance band upper bound, in currency units.
var DefaultWarningThreshold = decimal.NewFromInt(100)

// Input is the snapshot a projection runs over.
type Input struct {
	Accounts     []model.Account
	Incomes      []model.Income
	Bills        []model.Bill
	Overrides    model.OverrideSet
	Payments     []model.Payment
	Transactions []model.Transaction
}

// Projector projects balances. The zero value uses DefaultWarningThreshold.
type Projector struct {
	warning    decimal.Decimal
	hasWarning bool
}

// New returns a projector flagging non-negative balances below threshold as
// warnings. A zero threshold disables warnings.
func New(threshold decimal.Decimal) Projector {
	return Projector{warning: model.NonNegative(threshold), hasWarning: true}
}

// WarningThreshold returns the threshold in effect.
func (p Projector) WarningThreshold() decimal.Decimal {
	return p.threshold()
}

func (p Projector) threshold() decimal.Decimal {
	if !p.hasWarning {
		return DefaultWarningThreshold
	}
	return p.warning
}

// Project returns one DaySummary per date in [from, to].
//
// The walk starts from the sum of the accounts' current balances. Each day it
// adds unrealized income occurrences, subtracts unpaid bill occurrences, then
// applies the realized transactions dated that day. Realized occurrences are
// skipped in the first two steps so their transaction is the only effect
// counted for that date.
func (p Projector) Project(in Input, from, to time.Time) []model.DaySummary {
	w := newWalk(in)
	var out []model.DaySummary
	model.EachDay(from, to, func(day time.Time) {
		out = append(out, w.step(day, p.threshold(), true))
	})
	return out
}

// HasNegative runs the same walk without collecting event detail and reports
// whether any day in [from, to] ends below zero.
func (p Projector) HasNegative(in Input, from, to time.Time) bool {
	w := newWalk(in)
	negative := false
	model.EachDay(from, to, func(day time.Time) {
		if !negative && w.step(day, p.threshold(), false).IsNegative {
			negative = true
		}
	})
	return negative
}

// FirstFlagged returns the first negative day and the first warning day in
// days, if any.
func FirstFlagged(days []model.DaySummary) (negative, warning *model.DaySummary) {
	for i := range days {
		if negative == nil && days[i].IsNegative {
			negative = &days[i]
		}
		if warning == nil && days[i].IsWarning {
			warning = &days[i]
		}
	}
	return negative, warning
}

// Lowest returns the day with the lowest balance; ties keep the earliest.
func Lowest(days []model.DaySummary) (model.DaySummary, bool) {
	if len(days) == 0 {
		return model.DaySummary{}, false
	}
	low := days[0]
	for _, d := range days[1:] {
		if d.Balance.LessThan(low.Balance) {
			low = d
		}
	}
	return low, true
}

type walk struct {
	in       Input
	balance  decimal.Decimal
	accounts map[string]struct{}
	paid     occurrence.PaymentIndex
	received occurrence.IncomeIndex
	byDate   map[string][]model.Transaction
}

func newWalk(in Input) *walk {
	w := &walk{
		in:       in,
		balance:  decimal.Zero,
		accounts: make(map[string]struct{}, len(in.Accounts)),
		paid:     occurrence.NewPaymentIndex(in.Payments),
		received: occurrence.NewIncomeIndex(in.Transactions),
		byDate:   make(map[string][]model.Transaction),
	}
	for _, a := range in.Accounts {
		w.balance = w.balance.Add(a.CurrentBalance)
		w.accounts[a.ID] = struct{}{}
	}
	w.balance = model.RoundMoney(w.balance)
	for _, t := range in.Transactions {
		k := model.FormatDate(t.Date)
		w.byDate[k] = append(w.byDate[k], t)
	}
	return w
}

func (w *walk) step(day time.Time, threshold decimal.Decimal, detail bool) model.DaySummary {
	sum := model.DaySummary{Date: day}

	for _, inc := range w.in.Incomes {
		if !inc.IsActive || !recurrence.Of(inc.Obligation).OccursOn(day) {
			continue
		}
		if _, ok := w.received.Realized(inc.ID, day); ok {
			continue
		}
		amt := model.RoundMoney(w.in.Overrides.Amount(inc.ID, day, inc.Amount))
		w.balance = w.balance.Add(amt)
		if detail {
			sum.IncomeEvents = append(sum.IncomeEvents, model.ScheduledEvent{ObligationID: inc.ID, Name: inc.Name, Amount: amt})
		}
	}

	for _, b := range w.in.Bills {
		if !b.IsActive || !recurrence.Of(b.Obligation).OccursOn(day) {
			continue
		}
		if _, ok := w.paid.Realized(b.ID, day); ok {
			continue
		}
		amt := occurrence.BillAmount(b, w.in.Overrides, day)
		w.balance = w.balance.Sub(amt)
		if detail {
			sum.BillEvents = append(sum.BillEvents, model.ScheduledEvent{ObligationID: b.ID, Name: b.Name, Amount: amt})
		}
	}

	for _, t := range w.byDate[model.FormatDate(day)] {
		w.balance = w.balance.Add(ledger.EffectOf(t).Within(w.accounts))
		if detail {
			sum.Transactions = append(sum.Transactions, t)
		}
	}

	w.balance = model.RoundMoney(w.balance)
	sum.Balance = w.balance
	sum.IsNegative = w.balance.IsNegative()
	sum.IsWarning = !sum.IsNegative && w.balance.LessThan(threshold)
	return sum
}
