package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
)

// PayBillInput describes a bill occurrence being marked paid.
type PayBillInput struct {
	BillID      string
	Date        time.Time       // occurrence date
	Amount      decimal.Decimal // amount actually paid
	AccountID   string          // defaults to the bill's account
	PaidOn      time.Time       // transaction date; defaults to Date
	Description string
	EnvelopeID  string
}

// PayBill records a payment for one bill occurrence. The payment row and its
// BILL_PAYMENT (or CREDIT_CARD_PAYMENT) transaction are written atomically.
func (l *Ledger) PayBill(ctx context.Context, in PayBillInput) (model.Payment, error) {
	in.Date = model.Day(in.Date)
	if in.Amount.IsNegative() {
		return model.Payment{}, fmt.Errorf("%w: payment amount must be non-negative", ErrInvalidTransaction)
	}

	var bill model.Bill
	err := l.store.WithTx(ctx, func(tx Tx) error {
		b, err := tx.Bill(ctx, in.BillID)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrBillNotFound, in.BillID)
		}
		bill = b
		return err
	})
	if err != nil {
		return model.Payment{}, err
	}

	accountID := in.AccountID
	if accountID == "" {
		accountID = bill.AccountID
	}
	kind := model.KindBillPayment
	if bill.IsCreditCard {
		kind = model.KindCreditCardPayment
	}
	paidOn := in.PaidOn
	if paidOn.IsZero() {
		paidOn = in.Date
	}
	desc := in.Description
	if desc == "" {
		desc = bill.Name
	}

	t, err := l.prepare(model.Transaction{
		AccountID:     accountID,
		Kind:          kind,
		Amount:        in.Amount,
		Date:          paidOn,
		Description:   desc,
		RelatedBillID: bill.ID,
		EnvelopeID:    in.EnvelopeID,
	})
	if err != nil {
		return model.Payment{}, err
	}

	unlock := l.lock(accountID)
	defer unlock()

	var payment model.Payment
	err = l.store.WithTx(ctx, func(tx Tx) error {
		_, err := tx.PaymentFor(ctx, bill.ID, in.Date)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s on %s", ErrAlreadyPaid, bill.Name, model.FormatDate(in.Date))
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("loading payment: %w", err)
		}

		t, err = l.insert(ctx, tx, t)
		if err != nil {
			return err
		}
		payment = model.Payment{
			ID:            l.newID(),
			BillID:        bill.ID,
			AccountID:     accountID,
			Date:          in.Date,
			Amount:        t.Amount,
			TransactionID: t.ID,
		}
		return tx.InsertPayment(ctx, payment)
	})
	if err != nil {
		return model.Payment{}, err
	}
	return payment, nil
}

// UnpayBill removes the payment for a bill occurrence and reverses its linked
// transaction, if any.
func (l *Ledger) UnpayBill(ctx context.Context, billID string, date time.Time) error {
	date = model.Day(date)

	for {
		var peek model.Transaction
		err := l.store.WithTx(ctx, func(tx Tx) error {
			p, err := tx.PaymentFor(ctx, billID, date)
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: %s on %s", ErrNotPaid, billID, model.FormatDate(date))
			}
			if err != nil || p.TransactionID == "" {
				return err
			}
			t, err := tx.Transaction(ctx, p.TransactionID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			peek = t
			return nil
		})
		if err != nil {
			return err
		}

		locked := []string{peek.AccountID, peek.ToAccountID}
		unlock := l.lock(locked...)
		err = l.store.WithTx(ctx, func(tx Tx) error {
			p, err := tx.PaymentFor(ctx, billID, date)
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: %s on %s", ErrNotPaid, billID, model.FormatDate(date))
			}
			if err != nil {
				return err
			}
			if err := tx.DeletePayment(ctx, p.ID); err != nil {
				return fmt.Errorf("deleting payment: %w", err)
			}
			if p.TransactionID == "" {
				return nil
			}
			t, err := tx.Transaction(ctx, p.TransactionID)
			if errors.Is(err, ErrNotFound) {
				l.log.Warn().Str("payment", p.ID).Str("transaction", p.TransactionID).
					Msg("linked transaction missing, removing payment only")
				return nil
			}
			if err != nil {
				return err
			}
			if !covers(locked, t.AccountID) || !covers(locked, t.ToAccountID) {
				return errStaleLock
			}
			return l.remove(ctx, tx, t)
		})
		unlock()
		if errors.Is(err, errStaleLock) {
			continue
		}
		return err
	}
}

// ReceiveIncome records an INCOME transaction for one income occurrence. The
// transaction's RelatedIncomeID and Date are what mark the occurrence received.
func (l *Ledger) ReceiveIncome(ctx context.Context, income model.Income, date time.Time, amount decimal.Decimal, accountID string) (model.Transaction, error) {
	if accountID == "" {
		accountID = income.AccountID
	}
	return l.Insert(ctx, model.Transaction{
		AccountID:       accountID,
		Kind:            model.KindIncome,
		Amount:          amount,
		Date:            date,
		Description:     income.Name,
		RelatedIncomeID: income.ID,
	})
}
