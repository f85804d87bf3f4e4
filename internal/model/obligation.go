package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Obligation is the schedule shared by incomes and bills.
type Obligation struct {
	ID         string
	Name       string
	Amount     decimal.Decimal // base amount, replaced per date by an Override
	Recurrence Recurrence
	StartDate  time.Time
	EndDate    *time.Time // bills only; nil means open-ended
	IsActive   bool
}

// Income is a recurring inflow. AccountID is the account credited when an
// occurrence is received.
type Income struct {
	Obligation
	AccountID string
}

// Bill is a recurring outflow. IsCreditCard marks bills whose amount the
// payment optimizer may reduce.
type Bill struct {
	Obligation
	AccountID          string
	ReminderDaysBefore int
	IsCreditCard       bool
}

// Override replaces an obligation's amount on one date.
type Override struct {
	ObligationID string
	Date         time.Time
	Amount       decimal.Decimal
}

// OverrideKey identifies an Override.
type OverrideKey struct {
	ObligationID string
	Date         string // YYYY-MM-DD
}

// OverrideSet indexes overrides by (obligation, date). At most one override
// exists per key; later entries replace earlier ones.
type OverrideSet map[OverrideKey]decimal.Decimal

// NewOverrideSet indexes a slice of overrides.
func NewOverrideSet(overrides []Override) OverrideSet {
	set := make(OverrideSet, len(overrides))
	for _, o := range overrides {
		set[OverrideKey{ObligationID: o.ObligationID, Date: FormatDate(o.Date)}] = o.Amount
	}
	return set
}

// Amount returns the override for (id, date), or base when there is none.
func (s OverrideSet) Amount(id string, date time.Time, base decimal.Decimal) decimal.Decimal {
	if s == nil {
		return base
	}
	if amt, ok := s[OverrideKey{ObligationID: id, Date: FormatDate(date)}]; ok {
		return amt
	}
	return base
}

// Without returns a copy of s with every override for the given obligation ids removed.
func (s OverrideSet) Without(ids ...string) OverrideSet {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make(OverrideSet, len(s))
	for k, v := range s {
		if _, ok := drop[k.ObligationID]; ok {
			continue
		}
		out[k] = v
	}
	return out
}

// Payment records that a bill occurrence was paid.
type Payment struct {
	ID            string
	BillID        string
	AccountID     string
	Date          time.Time // occurrence date being paid
	Amount        decimal.Decimal
	TransactionID string // optional link to the ledger transaction
}
