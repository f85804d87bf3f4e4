// Package pipeline loads a snapshot of every record and drives the engine
// packages over it.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

// Source is the read side of the record store.
type Source interface {
	Accounts(ctx context.Context) ([]model.Account, error)
	Incomes(ctx context.Context) ([]model.Income, error)
	Bills(ctx context.Context) ([]model.Bill, error)
	Overrides(ctx context.Context) ([]model.Override, error)
	Payments(ctx context.Context) ([]model.Payment, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
	Envelopes(ctx context.Context) ([]model.Envelope, error)
	Allocations(ctx context.Context) ([]model.EnvelopeAllocation, error)
	EnvelopeTransfers(ctx context.Context) ([]model.EnvelopeTransfer, error)
	Rules(ctx context.Context) ([]model.CategorizationRule, error)
}

// Pinned is a Source that can serve every read of one Load from a single
// view of its data, so balances and transactions agree with each other.
type Pinned interface {
	Source
	ReadView(ctx context.Context, fn func(view Source) error) error
}

// Snapshot holds every record read by Load. The engine only ever
// reads snapshots; writes go through the ledger and the envelope engine.
type Snapshot struct {
	Accounts     []model.Account
	Incomes      []model.Income
	Bills        []model.Bill
	Overrides    []model.Override
	Payments     []model.Payment
	Transactions []model.Transaction
	Envelopes    []model.Envelope
	Allocations  []model.EnvelopeAllocation
	Transfers    []model.EnvelopeTransfer
	Rules        []model.CategorizationRule
	LoadedAt     time.Time
}

// ProgressFunc is called during loading to report progress.
// current is the number of record sets loaded so far, total is the total count.
type ProgressFunc func(current, total int)

// Load reads every record set from src in parallel. A Pinned source serves
// all of them from one view.
func Load(ctx context.Context, src Source, progressFn ProgressFunc) (*Snapshot, error) {
	p, ok := src.(Pinned)
	if !ok {
		return loadAll(ctx, src, progressFn)
	}
	var snap *Snapshot
	err := p.ReadView(ctx, func(view Source) error {
		var err error
		snap, err = loadAll(ctx, view, progressFn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func loadAll(ctx context.Context, src Source, progressFn ProgressFunc) (*Snapshot, error) {
	snap := &Snapshot{}
	loaders := []struct {
		name string
		load func() error
	}{
		{"accounts", func() (err error) { snap.Accounts, err = src.Accounts(ctx); return }},
		{"incomes", func() (err error) { snap.Incomes, err = src.Incomes(ctx); return }},
		{"bills", func() (err error) { snap.Bills, err = src.Bills(ctx); return }},
		{"overrides", func() (err error) { snap.Overrides, err = src.Overrides(ctx); return }},
		{"payments", func() (err error) { snap.Payments, err = src.Payments(ctx); return }},
		{"transactions", func() (err error) { snap.Transactions, err = src.Transactions(ctx); return }},
		{"envelopes", func() (err error) { snap.Envelopes, err = src.Envelopes(ctx); return }},
		{"allocations", func() (err error) { snap.Allocations, err = src.Allocations(ctx); return }},
		{"envelope transfers", func() (err error) { snap.Transfers, err = src.EnvelopeTransfers(ctx); return }},
		{"rules", func() (err error) { snap.Rules, err = src.Rules(ctx); return }},
	}

	errs := make([]error, len(loaders))
	var wg sync.WaitGroup
	var processed atomic.Int64

	wg.Add(len(loaders))
	for i := range loaders {
		go func(i int) {
			defer wg.Done()
			errs[i] = loaders[i].load()
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(int(n), len(loaders))
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", loaders[i].name, err)
		}
	}
	snap.LoadedAt = time.Now()
	return snap, nil
}
