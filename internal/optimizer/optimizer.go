// Package optimizer recommends reduced credit-card payments that keep the
// projected combined balance non-negative over a horizon.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/projection"
)

var (
	// ErrInfeasible means no reduction within the iteration budget removed
	// every negative day. No partial recommendation accompanies it.
	ErrInfeasible  = errors.New("no feasible payment reduction found within horizon and iteration budget")
	ErrNoCards     = errors.New("no credit-card bills to optimize")
	ErrUnknownBill = errors.New("credit-card bill not found")
)

// Strategy selects how amounts are reduced each iteration.
type Strategy string

const (
	// RoundRobin lowers one card by Step per iteration, cycling through the
	// cards in order. It is feasible, not minimal.
	RoundRobin Strategy = "round-robin"
	// Proportional lowers every card each iteration by Step scaled by the
	// card's share of the largest original amount.
	Proportional Strategy = "proportional"
)

// ParseStrategy maps a config value to a Strategy; empty means RoundRobin.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", RoundRobin:
		return RoundRobin, nil
	case Proportional:
		return Proportional, nil
	default:
		return "", fmt.Errorf("unknown optimizer strategy %q", s)
	}
}

// Config bounds the search.
type Config struct {
	Step          decimal.Decimal
	MaxIterations int
	Strategy      Strategy
	Projector     projection.Projector
}

// DefaultConfig returns the default search parameters.
func DefaultConfig() Config {
	return Config{
		Step:          decimal.NewFromInt(5),
		MaxIterations: 1000,
		Strategy:      RoundRobin,
	}
}

// Result is a feasible recommendation.
type Result struct {
	Recommended map[string]decimal.Decimal // bill id -> amount to pay
	Original    map[string]decimal.Decimal
	Iterations  int
}

// Savings returns original minus recommended for a bill.
func (r Result) Savings(billID string) decimal.Decimal {
	return r.Original[billID].Sub(r.Recommended[billID])
}

// Optimize searches for credit-card bill amounts that keep every projected
// day in [today, today+horizonDays] non-negative. Card bills are simulated at
// their candidate amount on every occurrence, ignoring per-date overrides.
// The context is checked between iterations.
func Optimize(ctx context.Context, cfg Config, in projection.Input, cardBillIDs []string, today time.Time, horizonDays int) (Result, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if !cfg.Step.IsPositive() {
		cfg.Step = DefaultConfig().Step
	}

	cards := dedupe(cardBillIDs)
	if len(cards) == 0 {
		return Result{}, ErrNoCards
	}

	original := make(map[string]decimal.Decimal, len(cards))
	for _, id := range cards {
		b, ok := findBill(in.Bills, id)
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownBill, id)
		}
		original[id] = model.NonNegative(model.RoundMoney(b.Amount))
	}

	current := make(map[string]decimal.Decimal, len(cards))
	for id, amt := range original {
		current[id] = amt
	}

	from := model.Day(today)
	to := from.AddDate(0, 0, horizonDays)
	overrides := in.Overrides.Without(cards...)

	var (
		iterations int
		cardIndex  int
		maxAmount  = maxOf(original)
	)
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		sim := in
		sim.Bills = withAmounts(in.Bills, current)
		sim.Overrides = overrides
		if !cfg.Projector.HasNegative(sim, from, to) {
			break
		}
		if iterations >= cfg.MaxIterations || allZero(current) {
			return Result{}, ErrInfeasible
		}

		switch cfg.Strategy {
		case Proportional:
			for _, id := range cards {
				cut := model.RoundMoney(cfg.Step.Mul(original[id]).Div(maxAmount))
				current[id] = model.NonNegative(current[id].Sub(cut))
			}
		default:
			id := cards[cardIndex]
			current[id] = model.NonNegative(current[id].Sub(cfg.Step))
			cardIndex = (cardIndex + 1) % len(cards)
		}
		iterations++
	}

	return Result{Recommended: current, Original: original, Iterations: iterations}, nil
}

func withAmounts(bills []model.Bill, amounts map[string]decimal.Decimal) []model.Bill {
	out := make([]model.Bill, len(bills))
	copy(out, bills)
	for i := range out {
		if amt, ok := amounts[out[i].ID]; ok {
			out[i].Amount = model.NonNegative(amt)
		}
	}
	return out
}

func findBill(bills []model.Bill, id string) (model.Bill, bool) {
	for _, b := range bills {
		if b.ID == id {
			return b, true
		}
	}
	return model.Bill{}, false
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func allZero(amounts map[string]decimal.Decimal) bool {
	for _, a := range amounts {
		if a.IsPositive() {
			return false
		}
	}
	return true
}

func maxOf(amounts map[string]decimal.Decimal) decimal.Decimal {
	m := decimal.Zero
	for _, a := range amounts {
		if a.GreaterThan(m) {
			m = a
		}
	}
	if m.IsZero() {
		return decimal.NewFromInt(1)
	}
	return m
}
