package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Occurrence is one firing of an income or bill on a date.
type Occurrence struct {
	ObligationID      string
	Name              string
	Date              time.Time
	Amount            decimal.Decimal
	IsRealized        bool
	RealizedDate      *time.Time
	RealizedAccountID string
}

// ScheduledEvent is a synthetic income or bill applied by the projector.
type ScheduledEvent struct {
	ObligationID string
	Name         string
	Amount       decimal.Decimal
}

// DaySummary is the projected combined balance at the end of one day.
type DaySummary struct {
	Date         time.Time
	Balance      decimal.Decimal
	IsNegative   bool
	IsWarning    bool
	IncomeEvents []ScheduledEvent
	BillEvents   []ScheduledEvent
	Transactions []Transaction
}
