package envelope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
)

var (
	ErrEnvelopeNotFound    = errors.New("envelope not found")
	ErrDuplicateAllocation = errors.New("envelope already has an allocation for this period")
	ErrInvalidTransfer     = errors.New("invalid envelope transfer")
)

// Store is the storage the allocation and transfer operations need.
// Lookups return model.ErrNotFound for missing records; inserts return
// model.ErrDuplicate on a uniqueness violation.
type Store interface {
	Envelope(ctx context.Context, id string) (model.Envelope, error)
	AllocationAt(ctx context.Context, envelopeID string, periodStart time.Time) (model.EnvelopeAllocation, error)
	PreviousAllocation(ctx context.Context, envelopeID string, before time.Time) (model.EnvelopeAllocation, error)
	EnvelopeTransactions(ctx context.Context, envelopeID string, from, to time.Time) ([]model.Transaction, error)
	InsertAllocation(ctx context.Context, a model.EnvelopeAllocation) error
	InsertEnvelopeTransfer(ctx context.Context, t model.EnvelopeTransfer) error
}

// PlanAllocation builds the allocation for the period anchored at date. With
// carry-over enabled, a positive unspent balance of prev is added to amount;
// overspent periods never carry a negative balance forward.
func PlanAllocation(env model.Envelope, date time.Time, amount decimal.Decimal, prev *model.EnvelopeAllocation, prevTxns []model.Transaction) model.EnvelopeAllocation {
	start, end := PeriodBounds(date, env.PeriodKind)
	total := model.RoundMoney(amount)

	if env.CarryOverEnabled && prev != nil {
		if left := CarryOver(env, *prev, prevTxns, model.Day(date)); left.IsPositive() {
			total = total.Add(left)
		}
	}

	return model.EnvelopeAllocation{
		EnvelopeID:  env.ID,
		Amount:      total,
		PeriodStart: start,
		PeriodEnd:   end,
	}
}

// CarryOver is prev's allocated amount minus what was spent in its period up
// to asOf. The result may be negative; callers decide whether to carry it.
func CarryOver(env model.Envelope, prev model.EnvelopeAllocation, txns []model.Transaction, asOf time.Time) decimal.Decimal {
	spent := Spent(env, txns, model.Day(prev.PeriodStart), minDate(model.Day(prev.PeriodEnd), asOf))
	return model.RoundMoney(prev.Amount.Sub(spent))
}

// Engine runs allocation and transfer writes against a Store.
type Engine struct {
	store Store
	newID func() string
}

// NewEngine returns an Engine over store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store, newID: uuid.NewString}
}

// AllocateInput requests funds for the period anchored at Date.
type AllocateInput struct {
	EnvelopeID      string
	Date            time.Time
	Amount          decimal.Decimal
	FundingIncomeID string
}

// Allocate creates the allocation for the period containing in.Date. A second
// allocation for the same period start is rejected with ErrDuplicateAllocation.
func (e *Engine) Allocate(ctx context.Context, in AllocateInput) (model.EnvelopeAllocation, error) {
	env, err := e.store.Envelope(ctx, in.EnvelopeID)
	if errors.Is(err, model.ErrNotFound) {
		return model.EnvelopeAllocation{}, fmt.Errorf("%w: %s", ErrEnvelopeNotFound, in.EnvelopeID)
	}
	if err != nil {
		return model.EnvelopeAllocation{}, fmt.Errorf("loading envelope: %w", err)
	}

	start, _ := PeriodBounds(in.Date, env.PeriodKind)
	_, err = e.store.AllocationAt(ctx, env.ID, start)
	switch {
	case err == nil:
		return model.EnvelopeAllocation{}, fmt.Errorf("%w: %s from %s", ErrDuplicateAllocation, env.Name, model.FormatDate(start))
	case !errors.Is(err, model.ErrNotFound):
		return model.EnvelopeAllocation{}, fmt.Errorf("checking allocation: %w", err)
	}

	var (
		prev     *model.EnvelopeAllocation
		prevTxns []model.Transaction
	)
	if env.CarryOverEnabled {
		p, err := e.store.PreviousAllocation(ctx, env.ID, start)
		switch {
		case err == nil:
			prev = &p
			prevTxns, err = e.store.EnvelopeTransactions(ctx, env.ID, p.PeriodStart, p.PeriodEnd)
			if err != nil {
				return model.EnvelopeAllocation{}, fmt.Errorf("loading previous period spend: %w", err)
			}
		case !errors.Is(err, model.ErrNotFound):
			return model.EnvelopeAllocation{}, fmt.Errorf("loading previous allocation: %w", err)
		}
	}

	alloc := PlanAllocation(env, in.Date, in.Amount, prev, prevTxns)
	alloc.ID = e.newID()
	alloc.FundingIncomeID = in.FundingIncomeID

	if err := e.store.InsertAllocation(ctx, alloc); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return model.EnvelopeAllocation{}, fmt.Errorf("%w: %s from %s", ErrDuplicateAllocation, env.Name, model.FormatDate(start))
		}
		return model.EnvelopeAllocation{}, fmt.Errorf("storing allocation: %w", err)
	}
	return alloc, nil
}

// Transfer moves budget from one envelope to another.
func (e *Engine) Transfer(ctx context.Context, t model.EnvelopeTransfer) (model.EnvelopeTransfer, error) {
	if t.FromEnvelopeID == "" || t.ToEnvelopeID == "" || t.FromEnvelopeID == t.ToEnvelopeID {
		return t, fmt.Errorf("%w: needs two distinct envelopes", ErrInvalidTransfer)
	}
	if !t.Amount.IsPositive() {
		return t, fmt.Errorf("%w: amount must be positive", ErrInvalidTransfer)
	}
	for _, id := range []string{t.FromEnvelopeID, t.ToEnvelopeID} {
		if _, err := e.store.Envelope(ctx, id); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return t, fmt.Errorf("%w: %s", ErrEnvelopeNotFound, id)
			}
			return t, fmt.Errorf("loading envelope %s: %w", id, err)
		}
	}

	if t.ID == "" {
		t.ID = e.newID()
	}
	t.Amount = model.RoundMoney(t.Amount)
	t.Date = model.Day(t.Date)
	if err := e.store.InsertEnvelopeTransfer(ctx, t); err != nil {
		return t, fmt.Errorf("storing transfer: %w", err)
	}
	return t, nil
}
