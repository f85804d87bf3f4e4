package pipeline

import (
	"context"
	"time"

	"github.com/theirongolddev/fundcast/internal/envelope"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/occurrence"
	"github.com/theirongolddev/fundcast/internal/optimizer"
	"github.com/theirongolddev/fundcast/internal/projection"
)

// Input builds the projection input. With no account ids every account is
// included; otherwise only the named ones, and transfers to accounts outside
// the set count as outflows.
func (s *Snapshot) Input(accountIDs ...string) projection.Input {
	return projection.Input{
		Accounts:     FilterAccounts(s.Accounts, accountIDs...),
		Incomes:      s.Incomes,
		Bills:        s.Bills,
		Overrides:    model.NewOverrideSet(s.Overrides),
		Payments:     s.Payments,
		Transactions: s.Transactions,
	}
}

// FilterAccounts returns the accounts whose id is listed, or all of them when
// ids is empty.
func FilterAccounts(accounts []model.Account, ids ...string) []model.Account {
	if len(ids) == 0 {
		return accounts
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []model.Account
	for _, a := range accounts {
		if _, ok := want[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Forecast projects days [from, from+days].
func (s *Snapshot) Forecast(p projection.Projector, from time.Time, days int, accountIDs ...string) []model.DaySummary {
	from = model.Day(from)
	return p.Project(s.Input(accountIDs...), from, from.AddDate(0, 0, days))
}

// Upcoming lists bill and income occurrences in [from, from+days].
func (s *Snapshot) Upcoming(from time.Time, days int) (bills, incomes []model.Occurrence) {
	from = model.Day(from)
	to := from.AddDate(0, 0, days)
	overrides := model.NewOverrideSet(s.Overrides)
	return occurrence.Bills(s.Bills, overrides, s.Payments, from, to),
		occurrence.Incomes(s.Incomes, overrides, s.Transactions, from, to)
}

// Reminders lists the unpaid bills inside their reminder window at today.
func (s *Snapshot) Reminders(today time.Time, defaultDays int) []occurrence.Reminder {
	return occurrence.Reminders(s.Bills, model.NewOverrideSet(s.Overrides), s.Payments, today, defaultDays)
}

// EnvelopeSummaries returns the balance of every active envelope at date.
func (s *Snapshot) EnvelopeSummaries(date time.Time) []model.EnvelopeBalance {
	return envelope.Summaries(s.Envelopes, s.Allocations, s.Transactions, s.Transfers, date)
}

// CardBillIDs returns the ids of active credit-card bills.
func (s *Snapshot) CardBillIDs() []string {
	var ids []string
	for _, b := range s.Bills {
		if b.IsActive && b.IsCreditCard {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// Optimize recommends card payments over every account and every active
// credit-card bill.
func (s *Snapshot) Optimize(ctx context.Context, cfg optimizer.Config, today time.Time, horizonDays int) (optimizer.Result, error) {
	return optimizer.Optimize(ctx, cfg, s.Input(), s.CardBillIDs(), today, horizonDays)
}

// Bill returns the bill with id.
func (s *Snapshot) Bill(id string) (model.Bill, bool) {
	for _, b := range s.Bills {
		if b.ID == id {
			return b, true
		}
	}
	return model.Bill{}, false
}

// Income returns the income with id.
func (s *Snapshot) Income(id string) (model.Income, bool) {
	for _, in := range s.Incomes {
		if in.ID == id {
			return in, true
		}
	}
	return model.Income{}, false
}
