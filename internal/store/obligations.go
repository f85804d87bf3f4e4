package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

const incomeColumns = `id, name, amount, recurrence, start_date, account_id, is_active`

func scanIncome(row interface{ Scan(...any) error }) (model.Income, error) {
	var (
		in                model.Income
		recurrence, start string
		account           sql.NullString
		active            int
	)
	if err := row.Scan(&in.ID, &in.Name, &in.Amount, &recurrence, &start, &account, &active); err != nil {
		return in, err
	}
	in.Recurrence = model.Recurrence(recurrence)
	in.AccountID = account.String
	in.IsActive = active != 0
	var err error
	in.StartDate, err = parseDate(start)
	return in, err
}

// Income returns one income.
func (r records) Income(ctx context.Context, id string) (model.Income, error) {
	in, err := scanIncome(r.q.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM incomes WHERE id = ?`, id))
	return in, rowErr("income", id, err)
}

// Incomes returns every income, active or not.
func (r records) Incomes(ctx context.Context) ([]model.Income, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+incomeColumns+` FROM incomes ORDER BY start_date, name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// InsertIncome stores a new income.
func (r records) InsertIncome(ctx context.Context, in model.Income) (model.Income, error) {
	if in.ID == "" {
		in.ID = newID()
	}
	in.Amount = model.RoundMoney(in.Amount)
	in.StartDate = model.Day(in.StartDate)
	_, err := r.q.ExecContext(ctx, `INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.Amount, string(in.Recurrence), model.FormatDate(in.StartDate),
		nullString(in.AccountID), boolInt(in.IsActive))
	return in, insertErr("income", err)
}

// UpdateIncome rewrites an income, including its active flag.
func (r records) UpdateIncome(ctx context.Context, in model.Income) error {
	res, err := r.q.ExecContext(ctx, `UPDATE incomes SET
		name = ?, amount = ?, recurrence = ?, start_date = ?, account_id = ?, is_active = ?
		WHERE id = ?`,
		in.Name, model.RoundMoney(in.Amount), string(in.Recurrence), model.FormatDate(in.StartDate),
		nullString(in.AccountID), boolInt(in.IsActive), in.ID)
	return affected("income", in.ID, res, err)
}

const billColumns = `id, name, amount, recurrence, start_date, end_date, account_id,
	reminder_days_before, is_credit_card, is_active`

func scanBill(row interface{ Scan(...any) error }) (model.Bill, error) {
	var (
		b                 model.Bill
		recurrence, start string
		end, account      sql.NullString
		card, active      int
	)
	err := row.Scan(&b.ID, &b.Name, &b.Amount, &recurrence, &start, &end, &account,
		&b.ReminderDaysBefore, &card, &active)
	if err != nil {
		return b, err
	}
	b.Recurrence = model.Recurrence(recurrence)
	b.AccountID = account.String
	b.IsCreditCard = card != 0
	b.IsActive = active != 0
	if b.StartDate, err = parseDate(start); err != nil {
		return b, err
	}
	b.EndDate, err = parseNullDate(end)
	return b, err
}

// Bill returns one bill.
func (r records) Bill(ctx context.Context, id string) (model.Bill, error) {
	b, err := scanBill(r.q.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id))
	return b, rowErr("bill", id, err)
}

// Bills returns every bill, active or not.
func (r records) Bills(ctx context.Context) ([]model.Bill, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+billColumns+` FROM bills ORDER BY start_date, name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// InsertBill stores a new bill.
func (r records) InsertBill(ctx context.Context, b model.Bill) (model.Bill, error) {
	if b.ID == "" {
		b.ID = newID()
	}
	b.Amount = model.RoundMoney(b.Amount)
	b.StartDate = model.Day(b.StartDate)
	_, err := r.q.ExecContext(ctx, `INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Amount, string(b.Recurrence), model.FormatDate(b.StartDate), nullDate(b.EndDate),
		nullString(b.AccountID), b.ReminderDaysBefore, boolInt(b.IsCreditCard), boolInt(b.IsActive))
	return b, insertErr("bill", err)
}

// UpdateBill rewrites a bill, including its active flag.
func (r records) UpdateBill(ctx context.Context, b model.Bill) error {
	res, err := r.q.ExecContext(ctx, `UPDATE bills SET
		name = ?, amount = ?, recurrence = ?, start_date = ?, end_date = ?, account_id = ?,
		reminder_days_before = ?, is_credit_card = ?, is_active = ?
		WHERE id = ?`,
		b.Name, model.RoundMoney(b.Amount), string(b.Recurrence), model.FormatDate(b.StartDate),
		nullDate(b.EndDate), nullString(b.AccountID), b.ReminderDaysBefore,
		boolInt(b.IsCreditCard), boolInt(b.IsActive), b.ID)
	return affected("bill", b.ID, res, err)
}

// Overrides returns every per-date amount override.
func (r records) Overrides(ctx context.Context) ([]model.Override, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT obligation_id, date, amount FROM overrides ORDER BY date, obligation_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Override
	for rows.Next() {
		var o model.Override
		var date string
		if err := rows.Scan(&o.ObligationID, &date, &o.Amount); err != nil {
			return nil, err
		}
		if o.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SetOverride stores the amount for (obligation, date), replacing any
// existing override for the same key.
func (r records) SetOverride(ctx context.Context, o model.Override) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO overrides (obligation_id, date, amount) VALUES (?, ?, ?)
		ON CONFLICT (obligation_id, date) DO UPDATE SET amount = excluded.amount`,
		o.ObligationID, model.FormatDate(o.Date), model.RoundMoney(o.Amount))
	return err
}

// ClearOverride removes the override for (obligation, date).
func (r records) ClearOverride(ctx context.Context, obligationID string, date time.Time) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM overrides WHERE obligation_id = ? AND date = ?`,
		obligationID, model.FormatDate(date))
	return affected("override", obligationID+"@"+model.FormatDate(date), res, err)
}

const paymentColumns = `id, bill_id, account_id, date, amount, transaction_id`

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var (
		p    model.Payment
		date string
		txn  sql.NullString
	)
	if err := row.Scan(&p.ID, &p.BillID, &p.AccountID, &date, &p.Amount, &txn); err != nil {
		return p, err
	}
	p.TransactionID = txn.String
	var err error
	p.Date, err = parseDate(date)
	return p, err
}

// Payments returns every bill payment.
func (r records) Payments(ctx context.Context) ([]model.Payment, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY date, bill_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PaymentFor returns the payment recorded for one bill occurrence.
func (r records) PaymentFor(ctx context.Context, billID string, date time.Time) (model.Payment, error) {
	p, err := scanPayment(r.q.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE bill_id = ? AND date = ?`, billID, model.FormatDate(date)))
	return p, rowErr("payment", billID+"@"+model.FormatDate(date), err)
}

// InsertPayment stores a payment. A second payment for the same (bill, date)
// fails with model.ErrDuplicate.
func (r records) InsertPayment(ctx context.Context, p model.Payment) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.BillID, p.AccountID, model.FormatDate(p.Date), model.RoundMoney(p.Amount), nullString(p.TransactionID))
	return insertErr("payment", err)
}

// DeletePayment removes a payment row.
func (r records) DeletePayment(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	return affected("payment", id, res, err)
}
