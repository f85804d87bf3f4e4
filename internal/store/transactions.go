package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

const transactionColumns = `id, account_id, to_account_id, kind, amount, date, timestamp,
	description, related_bill_id, related_income_id, envelope_id`

func scanTransaction(row interface{ Scan(...any) error }) (model.Transaction, error) {
	var (
		t                                       model.Transaction
		kind, date, ts                          string
		toAccount, billID, incomeID, envelopeID sql.NullString
	)
	err := row.Scan(&t.ID, &t.AccountID, &toAccount, &kind, &t.Amount, &date, &ts,
		&t.Description, &billID, &incomeID, &envelopeID)
	if err != nil {
		return t, err
	}
	t.Kind = model.TransactionKind(kind)
	t.ToAccountID = toAccount.String
	t.RelatedBillID = billID.String
	t.RelatedIncomeID = incomeID.String
	t.EnvelopeID = envelopeID.String
	if t.Date, err = parseDate(date); err != nil {
		return t, err
	}
	t.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
	return t, err
}

func (r records) queryTransactions(ctx context.Context, where string, args ...any) ([]model.Transaction, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions `+where+` ORDER BY date, timestamp, id`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Transaction returns one transaction.
func (r records) Transaction(ctx context.Context, id string) (model.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	return t, rowErr("transaction", id, err)
}

// Transactions returns every transaction ordered by date.
func (r records) Transactions(ctx context.Context) ([]model.Transaction, error) {
	return r.queryTransactions(ctx, "")
}

// TransactionsBetween returns transactions dated in [from, to].
func (r records) TransactionsBetween(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	return r.queryTransactions(ctx, `WHERE date >= ? AND date <= ?`, model.FormatDate(from), model.FormatDate(to))
}

// EnvelopeTransactions returns the transactions tagged with envelopeID dated in [from, to].
func (r records) EnvelopeTransactions(ctx context.Context, envelopeID string, from, to time.Time) ([]model.Transaction, error) {
	return r.queryTransactions(ctx, `WHERE envelope_id = ? AND date >= ? AND date <= ?`,
		envelopeID, model.FormatDate(from), model.FormatDate(to))
}

func transactionArgs(t model.Transaction) []any {
	return []any{
		nullString(t.ToAccountID), string(t.Kind), model.RoundMoney(t.Amount),
		model.FormatDate(t.Date), t.Timestamp.UTC().Format(time.RFC3339Nano), t.Description,
		nullString(t.RelatedBillID), nullString(t.RelatedIncomeID), nullString(t.EnvelopeID),
	}
}

// InsertTransaction stores a transaction row. Balances are the ledger's concern.
func (r records) InsertTransaction(ctx context.Context, t model.Transaction) error {
	args := append([]any{t.ID, t.AccountID}, transactionArgs(t)...)
	_, err := r.q.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return insertErr("transaction", err)
}

// UpdateTransaction rewrites every mutable field of a stored transaction.
func (r records) UpdateTransaction(ctx context.Context, t model.Transaction) error {
	args := append([]any{t.AccountID}, transactionArgs(t)...)
	args = append(args, t.ID)
	res, err := r.q.ExecContext(ctx, `UPDATE transactions SET
		account_id = ?, to_account_id = ?, kind = ?, amount = ?, date = ?, timestamp = ?,
		description = ?, related_bill_id = ?, related_income_id = ?, envelope_id = ?
		WHERE id = ?`, args...)
	return affected("transaction", t.ID, res, err)
}

// DeleteTransaction removes a transaction row.
func (r records) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return affected("transaction", id, res, err)
}
