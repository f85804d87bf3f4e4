package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
)

const accountColumns = `id, name, kind, starting_balance, current_balance`

func scanAccount(row interface{ Scan(...any) error }) (model.Account, error) {
	var a model.Account
	var kind string
	if err := row.Scan(&a.ID, &a.Name, &kind, &a.StartingBalance, &a.CurrentBalance); err != nil {
		return a, err
	}
	a.Kind = model.AccountKind(kind)
	return a, nil
}

// Account returns one account.
func (r records) Account(ctx context.Context, id string) (model.Account, error) {
	a, err := scanAccount(r.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	return a, rowErr("account", id, err)
}

// Accounts returns every account ordered by name.
func (r records) Accounts(ctx context.Context) ([]model.Account, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertAccount creates an account whose current balance starts at its
// starting balance.
func (r records) InsertAccount(ctx context.Context, a model.Account) (model.Account, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	a.StartingBalance = model.RoundMoney(a.StartingBalance)
	a.CurrentBalance = a.StartingBalance
	if a.Kind == "" {
		a.Kind = model.OtherKind
	}
	_, err := r.q.ExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Kind), a.StartingBalance, a.CurrentBalance)
	return a, insertErr("account", err)
}

// SetCurrentBalance overwrites an account's cached balance. It exists only on
// Tx, which the ledger writes through.
func (t *Tx) SetCurrentBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	res, err := t.q.ExecContext(ctx, `UPDATE accounts SET current_balance = ? WHERE id = ?`,
		model.RoundMoney(balance), accountID)
	return affected("account", accountID, res, err)
}

// UpdateAccountDetails stores an account's name, kind and starting balance.
// The current balance is left to the ledger.
func (t *Tx) UpdateAccountDetails(ctx context.Context, a model.Account) error {
	res, err := t.q.ExecContext(ctx, `UPDATE accounts SET name = ?, kind = ?, starting_balance = ? WHERE id = ?`,
		a.Name, string(a.Kind), model.RoundMoney(a.StartingBalance), a.ID)
	return affected("account", a.ID, res, err)
}

// DeleteAccount removes the account row. Its transactions and payments go by
// cascade, so the ledger reverses them first.
func (t *Tx) DeleteAccount(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return affected("account", id, res, err)
}

// AccountTransactions returns every transaction on either side of accountID.
func (t *Tx) AccountTransactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	return t.queryTransactions(ctx, `WHERE account_id = ? OR to_account_id = ?`, accountID, accountID)
}
