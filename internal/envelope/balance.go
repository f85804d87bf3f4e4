package envelope

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
)

// Spent sums spend transactions tagged with the envelope and dated in
// [from, to]. When the envelope is scoped to an account only that account's
// transactions count.
func Spent(env model.Envelope, txns []model.Transaction, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.EnvelopeID != env.ID || !t.Kind.IsSpend() {
			continue
		}
		if env.AccountID != "" && t.AccountID != env.AccountID {
			continue
		}
		if within(t.Date, from, to) {
			total = total.Add(t.Amount)
		}
	}
	return model.RoundMoney(total)
}

func transferTotals(envelopeID string, transfers []model.EnvelopeTransfer, from, to time.Time) (in, out decimal.Decimal) {
	in, out = decimal.Zero, decimal.Zero
	for _, tr := range transfers {
		if !within(tr.Date, from, to) {
			continue
		}
		if tr.ToEnvelopeID == envelopeID {
			in = in.Add(tr.Amount)
		}
		if tr.FromEnvelopeID == envelopeID {
			out = out.Add(tr.Amount)
		}
	}
	return model.RoundMoney(in), model.RoundMoney(out)
}

// AllocationFor returns the allocation of envelopeID whose period contains
// date, preferring the latest start when periods overlap.
func AllocationFor(allocs []model.EnvelopeAllocation, envelopeID string, date time.Time) (model.EnvelopeAllocation, bool) {
	var (
		best  model.EnvelopeAllocation
		found bool
	)
	for _, a := range allocs {
		if a.EnvelopeID != envelopeID || !within(date, a.PeriodStart, a.PeriodEnd) {
			continue
		}
		if !found || a.PeriodStart.After(best.PeriodStart) {
			best, found = a, true
		}
	}
	return best, found
}

// Balance computes an envelope's state at date:
//
//	remaining = allocated + transfersIn - spent - transfersOut
//
// with every flow counted from the period start up to date. Without an
// allocation the period comes from PeriodBounds and nothing is allocated.
func Balance(env model.Envelope, alloc *model.EnvelopeAllocation, txns []model.Transaction, transfers []model.EnvelopeTransfer, date time.Time) model.EnvelopeBalance {
	date = model.Day(date)
	b := model.EnvelopeBalance{Envelope: env, Allocated: decimal.Zero}
	if alloc != nil {
		b.PeriodStart, b.PeriodEnd = model.Day(alloc.PeriodStart), model.Day(alloc.PeriodEnd)
		b.Allocated = model.RoundMoney(alloc.Amount)
	} else {
		b.PeriodStart, b.PeriodEnd = PeriodBounds(date, env.PeriodKind)
	}

	upTo := minDate(b.PeriodEnd, date)
	b.Spent = Spent(env, txns, b.PeriodStart, upTo)
	b.TransfersIn, b.TransfersOut = transferTotals(env.ID, transfers, b.PeriodStart, upTo)
	b.Remaining = model.RoundMoney(b.Allocated.Add(b.TransfersIn).Sub(b.Spent).Sub(b.TransfersOut))
	return b
}

// Summaries returns the balance of every active envelope at date, in input order.
func Summaries(envs []model.Envelope, allocs []model.EnvelopeAllocation, txns []model.Transaction, transfers []model.EnvelopeTransfer, date time.Time) []model.EnvelopeBalance {
	out := make([]model.EnvelopeBalance, 0, len(envs))
	for _, env := range envs {
		if !env.IsActive {
			continue
		}
		var alloc *model.EnvelopeAllocation
		if a, ok := AllocationFor(allocs, env.ID, date); ok {
			alloc = &a
		}
		out = append(out, Balance(env, alloc, txns, transfers, date))
	}
	return out
}
