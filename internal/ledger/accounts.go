package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/fundcast/internal/model"
)

// UpdateAccount changes an account's name, kind and starting balance. A new
// starting balance moves the current balance by the same difference.
func (l *Ledger) UpdateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	unlock := l.lock(a.ID)
	defer unlock()

	var out model.Account
	err := l.store.WithTx(ctx, func(tx Tx) error {
		prev, err := l.account(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		if a.Kind == "" {
			a.Kind = prev.Kind
		}
		a.StartingBalance = model.RoundMoney(a.StartingBalance)
		if err := tx.UpdateAccountDetails(ctx, a); err != nil {
			return fmt.Errorf("updating account %s: %w", a.ID, err)
		}
		shift := Effect{AccountID: a.ID, AccountDelta: a.StartingBalance.Sub(prev.StartingBalance)}
		if err := l.apply(ctx, tx, shift); err != nil {
			return err
		}
		out, err = tx.Account(ctx, a.ID)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	return out, nil
}

// DeleteAccount removes an account together with every transaction that
// touches it. Each transaction is reversed first, so a transfer partner keeps
// a balance matching the transactions it has left.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	for {
		var peek []model.Transaction
		err := l.store.WithTx(ctx, func(tx Tx) error {
			if _, err := l.account(ctx, tx, id); err != nil {
				return err
			}
			var err error
			peek, err = tx.AccountTransactions(ctx, id)
			return err
		})
		if err != nil {
			return err
		}

		locked := counterparties(id, peek)
		unlock := l.lock(locked...)
		err = l.store.WithTx(ctx, func(tx Tx) error {
			if _, err := l.account(ctx, tx, id); err != nil {
				return err
			}
			txns, err := tx.AccountTransactions(ctx, id)
			if err != nil {
				return fmt.Errorf("loading transactions of %s: %w", id, err)
			}
			for _, t := range txns {
				if !covers(locked, t.AccountID) || !covers(locked, t.ToAccountID) {
					return errStaleLock
				}
			}
			for _, t := range txns {
				if err := l.remove(ctx, tx, t); err != nil {
					return fmt.Errorf("reversing transaction %s: %w", t.ID, err)
				}
			}
			return tx.DeleteAccount(ctx, id)
		})
		unlock()
		if errors.Is(err, errStaleLock) {
			continue
		}
		if err == nil {
			l.log.Debug().Str("account", id).Int("transactions", len(peek)).Msg("account deleted")
		}
		return err
	}
}

func (l *Ledger) account(ctx context.Context, tx Tx, id string) (model.Account, error) {
	a, err := tx.Account(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return a, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	if err != nil {
		return a, fmt.Errorf("loading account %s: %w", id, err)
	}
	return a, nil
}

// counterparties lists id plus every other account its transactions touch.
func counterparties(id string, txns []model.Transaction) []string {
	out := []string{id}
	for _, t := range txns {
		out = append(out, t.AccountID, t.ToAccountID)
	}
	return out
}
