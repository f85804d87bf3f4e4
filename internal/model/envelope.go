package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Envelope is a budget category funded once per period.
type Envelope struct {
	ID               string
	Name             string
	Color            string
	Icon             string
	BudgetedAmount   decimal.Decimal
	PeriodKind       Recurrence
	AccountID        string // optional scope
	CarryOverEnabled bool
	IsActive         bool
}

// EnvelopeAllocation is the funded budget of one envelope for one period.
// (EnvelopeID, PeriodStart) is unique.
type EnvelopeAllocation struct {
	ID              string
	EnvelopeID      string
	Amount          decimal.Decimal
	PeriodStart     time.Time
	PeriodEnd       time.Time
	FundingIncomeID string
}

// EnvelopeTransfer moves budget between two envelopes.
type EnvelopeTransfer struct {
	ID             string
	FromEnvelopeID string
	ToEnvelopeID   string
	Amount         decimal.Decimal
	Date           time.Time
	Description    string
}

// CategorizationRule assigns EnvelopeID to transactions whose description
// contains Keyword, ignoring case.
type CategorizationRule struct {
	ID         string
	EnvelopeID string
	Keyword    string
	IsActive   bool
	CreatedAt  time.Time
}

// EnvelopeBalance is the computed state of an envelope at a date.
type EnvelopeBalance struct {
	Envelope     Envelope
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Allocated    decimal.Decimal
	Spent        decimal.Decimal
	TransfersIn  decimal.Decimal
	TransfersOut decimal.Decimal
	Remaining    decimal.Decimal
}
