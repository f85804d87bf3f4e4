// Package ledger owns account balances. Every balance change in fundcast goes
// through Insert, Update or Delete (or the bill, income and account helpers
// built on them), so an account's CurrentBalance always equals its StartingBalance
// plus the signed effect of its transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/envelope"
	"github.com/theirongolddev/fundcast/internal/model"
)

var (
	// ErrNotFound is returned by a Tx when a record does not exist.
	ErrNotFound = model.ErrNotFound

	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBillNotFound        = errors.New("bill not found")
	ErrAlreadyPaid         = errors.New("bill occurrence already paid")
	ErrNotPaid             = errors.New("bill occurrence not paid")
	ErrInvalidTransaction  = errors.New("invalid transaction")
)

// Tx is the storage view the ledger needs inside one atomic write.
type Tx interface {
	Account(ctx context.Context, id string) (model.Account, error)
	SetCurrentBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
	UpdateAccountDetails(ctx context.Context, a model.Account) error
	DeleteAccount(ctx context.Context, id string) error
	AccountTransactions(ctx context.Context, accountID string) ([]model.Transaction, error)

	Transaction(ctx context.Context, id string) (model.Transaction, error)
	InsertTransaction(ctx context.Context, t model.Transaction) error
	UpdateTransaction(ctx context.Context, t model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	Bill(ctx context.Context, id string) (model.Bill, error)
	PaymentFor(ctx context.Context, billID string, date time.Time) (model.Payment, error)
	InsertPayment(ctx context.Context, p model.Payment) error
	DeletePayment(ctx context.Context, id string) error

	ActiveRules(ctx context.Context) ([]model.CategorizationRule, error)
}

// Store runs fn inside one transaction, committing only if fn returns nil.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Ledger applies transactions to account balances.
type Ledger struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for degraded-update warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDs overrides identity generation.
func WithIDs(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New returns a ledger writing through store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		log:   zerolog.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// UpdateResult reports how an update was applied.
type UpdateResult struct {
	Transaction model.Transaction
	// Degraded is set when the prior version could not be found and only the
	// new effect was applied.
	Degraded bool
}

// Validate checks the shape rules a transaction must satisfy before it is applied.
func Validate(t model.Transaction) error {
	if t.AccountID == "" {
		return fmt.Errorf("%w: account is required", ErrInvalidTransaction)
	}
	switch t.Kind {
	case model.KindIncome, model.KindBillPayment, model.KindCreditCardPayment:
		if t.Amount.IsNegative() {
			return fmt.Errorf("%w: %s amount must be non-negative", ErrInvalidTransaction, t.Kind)
		}
	case model.KindManualAdjustment:
	case model.KindTransfer:
		if t.Amount.IsNegative() {
			return fmt.Errorf("%w: transfer amount must be non-negative", ErrInvalidTransaction)
		}
		if t.ToAccountID == "" || t.ToAccountID == t.AccountID {
			return fmt.Errorf("%w: transfer needs a distinct destination account", ErrInvalidTransaction)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, t.Kind)
	}
	return nil
}

// Insert applies t's effect and stores it. A spend transaction without an
// envelope is auto-categorized from its description.
func (l *Ledger) Insert(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	t, err := l.prepare(t)
	if err != nil {
		return model.Transaction{}, err
	}

	unlock := l.lock(t.AccountID, t.ToAccountID)
	defer unlock()

	err = l.store.WithTx(ctx, func(tx Tx) error {
		var err error
		t, err = l.insert(ctx, tx, t)
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// Update replaces the stored transaction with next. The prior version's effect
// is reversed before next's effect is applied, so kind and account changes are
// handled the same way as amount changes.
func (l *Ledger) Update(ctx context.Context, next model.Transaction) (UpdateResult, error) {
	if next.ID == "" {
		return UpdateResult{}, fmt.Errorf("%w: id is required", ErrInvalidTransaction)
	}
	next, err := l.prepare(next)
	if err != nil {
		return UpdateResult{}, err
	}

	var res UpdateResult
	err = l.withPrior(ctx, next.ID, []string{next.AccountID, next.ToAccountID},
		func(tx Tx, prev model.Transaction, found bool) error {
			if !found {
				l.log.Warn().Str("transaction", next.ID).Msg("prior transaction missing, applying new effect only")
				if err := l.apply(ctx, tx, EffectOf(next)); err != nil {
					return err
				}
				res = UpdateResult{Transaction: next, Degraded: true}
				return tx.InsertTransaction(ctx, next)
			}

			if err := l.apply(ctx, tx, EffectOf(prev).Reverse()); err != nil {
				return err
			}
			if err := l.apply(ctx, tx, EffectOf(next)); err != nil {
				return err
			}
			res = UpdateResult{Transaction: next}
			return tx.UpdateTransaction(ctx, next)
		})
	if err != nil {
		return UpdateResult{}, err
	}
	return res, nil
}

// Delete reverses the transaction's effect and removes it.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	return l.withPrior(ctx, id, nil, func(tx Tx, prev model.Transaction, found bool) error {
		if !found {
			return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
		}
		return l.remove(ctx, tx, prev)
	})
}

var errStaleLock = errors.New("transaction accounts changed while locking")

// withPrior locks the accounts of the stored transaction id plus extra, then
// runs fn in a write transaction with the prior version re-read under the
// lock. If a concurrent writer moved the transaction to other accounts in
// between, the lock set is recomputed.
func (l *Ledger) withPrior(ctx context.Context, id string, extra []string,
	fn func(tx Tx, prev model.Transaction, found bool) error,
) error {
	for {
		var peek model.Transaction
		err := l.store.WithTx(ctx, func(tx Tx) error {
			p, err := tx.Transaction(ctx, id)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			peek = p
			return nil
		})
		if err != nil {
			return fmt.Errorf("loading transaction %s: %w", id, err)
		}

		locked := append([]string{peek.AccountID, peek.ToAccountID}, extra...)
		unlock := l.lock(locked...)
		err = l.store.WithTx(ctx, func(tx Tx) error {
			prev, err := tx.Transaction(ctx, id)
			found := true
			switch {
			case errors.Is(err, ErrNotFound):
				found = false
			case err != nil:
				return fmt.Errorf("loading transaction %s: %w", id, err)
			}
			if found && !(covers(locked, prev.AccountID) && covers(locked, prev.ToAccountID)) {
				return errStaleLock
			}
			return fn(tx, prev, found)
		})
		unlock()
		if errors.Is(err, errStaleLock) {
			continue
		}
		return err
	}
}

func covers(ids []string, id string) bool {
	if id == "" {
		return true
	}
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (l *Ledger) prepare(t model.Transaction) (model.Transaction, error) {
	if err := Validate(t); err != nil {
		return t, err
	}
	if t.Kind != model.KindTransfer {
		t.ToAccountID = ""
	}
	t.Amount = model.RoundMoney(t.Amount)
	t.Date = model.Day(t.Date)
	if t.Timestamp.IsZero() {
		t.Timestamp = l.now().UTC()
	}
	return t, nil
}

func (l *Ledger) insert(ctx context.Context, tx Tx, t model.Transaction) (model.Transaction, error) {
	if t.ID == "" {
		t.ID = l.newID()
	}
	if t.Kind.IsSpend() && t.EnvelopeID == "" {
		rules, err := tx.ActiveRules(ctx)
		if err != nil {
			return t, fmt.Errorf("loading categorization rules: %w", err)
		}
		if id, ok := envelope.MatchEnvelope(t.Description, rules); ok {
			t.EnvelopeID = id
		}
	}
	if err := l.apply(ctx, tx, EffectOf(t)); err != nil {
		return t, err
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return t, fmt.Errorf("storing transaction: %w", err)
	}
	return t, nil
}

func (l *Ledger) remove(ctx context.Context, tx Tx, prev model.Transaction) error {
	if err := l.apply(ctx, tx, EffectOf(prev).Reverse()); err != nil {
		return err
	}
	return tx.DeleteTransaction(ctx, prev.ID)
}

// apply adds an effect to the current balances it touches. A missing account
// fails the write, and the surrounding transaction rolls back every leg.
func (l *Ledger) apply(ctx context.Context, tx Tx, e Effect) error {
	deltas := e.Deltas()
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		acct, err := tx.Account(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("loading account %s: %w", id, err)
		}
		balance := model.RoundMoney(acct.CurrentBalance.Add(deltas[id]))
		if err := tx.SetCurrentBalance(ctx, id, balance); err != nil {
			return fmt.Errorf("updating balance of %s: %w", id, err)
		}
	}
	return nil
}

// lock serializes ledger writes per account. Locks are taken in sorted order
// so two writers touching the same pair of accounts cannot deadlock.
func (l *Ledger) lock(accountIDs ...string) func() {
	seen := make(map[string]struct{}, len(accountIDs))
	ids := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	l.mu.Lock()
	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		m, ok := l.locks[id]
		if !ok {
			m = &sync.Mutex{}
			l.locks[id] = m
		}
		held = append(held, m)
	}
	l.mu.Unlock()

	for _, m := range held {
		m.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
