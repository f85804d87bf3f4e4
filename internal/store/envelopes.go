package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

const envelopeColumns = `id, name, color, icon, budgeted_amount, period_kind, account_id,
	carry_over_enabled, is_active`

func scanEnvelope(row interface{ Scan(...any) error }) (model.Envelope, error) {
	var (
		e             model.Envelope
		period        string
		account       sql.NullString
		carry, active int
	)
	err := row.Scan(&e.ID, &e.Name, &e.Color, &e.Icon, &e.BudgetedAmount, &period, &account, &carry, &active)
	e.PeriodKind = model.Recurrence(period)
	e.AccountID = account.String
	e.CarryOverEnabled = carry != 0
	e.IsActive = active != 0
	return e, err
}

// Envelope returns one envelope.
func (r records) Envelope(ctx context.Context, id string) (model.Envelope, error) {
	e, err := scanEnvelope(r.q.QueryRowContext(ctx, `SELECT `+envelopeColumns+` FROM envelopes WHERE id = ?`, id))
	return e, rowErr("envelope", id, err)
}

// Envelopes returns every envelope ordered by name.
func (r records) Envelopes(ctx context.Context) ([]model.Envelope, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+envelopeColumns+` FROM envelopes ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Envelope
	for rows.Next() {
		e, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertEnvelope stores a new envelope.
func (r records) InsertEnvelope(ctx context.Context, e model.Envelope) (model.Envelope, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	e.BudgetedAmount = model.RoundMoney(e.BudgetedAmount)
	_, err := r.q.ExecContext(ctx, `INSERT INTO envelopes (`+envelopeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Color, e.Icon, e.BudgetedAmount, string(e.PeriodKind), nullString(e.AccountID),
		boolInt(e.CarryOverEnabled), boolInt(e.IsActive))
	return e, insertErr("envelope", err)
}

// UpdateEnvelope rewrites an envelope, including its active flag.
func (r records) UpdateEnvelope(ctx context.Context, e model.Envelope) error {
	res, err := r.q.ExecContext(ctx, `UPDATE envelopes SET
		name = ?, color = ?, icon = ?, budgeted_amount = ?, period_kind = ?, account_id = ?,
		carry_over_enabled = ?, is_active = ?
		WHERE id = ?`,
		e.Name, e.Color, e.Icon, model.RoundMoney(e.BudgetedAmount), string(e.PeriodKind),
		nullString(e.AccountID), boolInt(e.CarryOverEnabled), boolInt(e.IsActive), e.ID)
	return affected("envelope", e.ID, res, err)
}

const allocationColumns = `id, envelope_id, amount, period_start, period_end, funding_income_id`

func scanAllocation(row interface{ Scan(...any) error }) (model.EnvelopeAllocation, error) {
	var (
		a          model.EnvelopeAllocation
		start, end string
		income     sql.NullString
	)
	if err := row.Scan(&a.ID, &a.EnvelopeID, &a.Amount, &start, &end, &income); err != nil {
		return a, err
	}
	a.FundingIncomeID = income.String
	var err error
	if a.PeriodStart, err = parseDate(start); err != nil {
		return a, err
	}
	a.PeriodEnd, err = parseDate(end)
	return a, err
}

// Allocations returns every envelope allocation.
func (r records) Allocations(ctx context.Context) ([]model.EnvelopeAllocation, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+allocationColumns+` FROM envelope_allocations ORDER BY period_start, envelope_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.EnvelopeAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AllocationAt returns the allocation of envelopeID starting on periodStart.
func (r records) AllocationAt(ctx context.Context, envelopeID string, periodStart time.Time) (model.EnvelopeAllocation, error) {
	a, err := scanAllocation(r.q.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM envelope_allocations WHERE envelope_id = ? AND period_start = ?`,
		envelopeID, model.FormatDate(periodStart)))
	return a, rowErr("allocation", envelopeID+"@"+model.FormatDate(periodStart), err)
}

// PreviousAllocation returns the latest allocation of envelopeID that starts
// before the given date.
func (r records) PreviousAllocation(ctx context.Context, envelopeID string, before time.Time) (model.EnvelopeAllocation, error) {
	a, err := scanAllocation(r.q.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM envelope_allocations
		WHERE envelope_id = ? AND period_start < ?
		ORDER BY period_start DESC LIMIT 1`,
		envelopeID, model.FormatDate(before)))
	return a, rowErr("allocation", envelopeID+" before "+model.FormatDate(before), err)
}

// InsertAllocation stores an allocation. A second allocation for the same
// (envelope, period start) fails with model.ErrDuplicate.
func (r records) InsertAllocation(ctx context.Context, a model.EnvelopeAllocation) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO envelope_allocations (`+allocationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.EnvelopeID, model.RoundMoney(a.Amount), model.FormatDate(a.PeriodStart),
		model.FormatDate(a.PeriodEnd), nullString(a.FundingIncomeID))
	return insertErr("allocation", err)
}

// EnvelopeTransfers returns every transfer between envelopes.
func (r records) EnvelopeTransfers(ctx context.Context) ([]model.EnvelopeTransfer, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, from_envelope_id, to_envelope_id, amount, date, description
		FROM envelope_transfers ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.EnvelopeTransfer
	for rows.Next() {
		var t model.EnvelopeTransfer
		var date string
		if err := rows.Scan(&t.ID, &t.FromEnvelopeID, &t.ToEnvelopeID, &t.Amount, &date, &t.Description); err != nil {
			return nil, err
		}
		if t.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertEnvelopeTransfer stores a transfer between envelopes.
func (r records) InsertEnvelopeTransfer(ctx context.Context, t model.EnvelopeTransfer) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO envelope_transfers
		(id, from_envelope_id, to_envelope_id, amount, date, description) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.FromEnvelopeID, t.ToEnvelopeID, model.RoundMoney(t.Amount), model.FormatDate(t.Date), t.Description)
	return insertErr("envelope transfer", err)
}

func (r records) queryRules(ctx context.Context, where string) ([]model.CategorizationRule, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, envelope_id, keyword, is_active, created_at
		FROM categorization_rules `+where+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.CategorizationRule
	for rows.Next() {
		var rule model.CategorizationRule
		var active int
		var created string
		if err := rows.Scan(&rule.ID, &rule.EnvelopeID, &rule.Keyword, &active, &created); err != nil {
			return nil, err
		}
		rule.IsActive = active != 0
		rule.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rule)
	}
	return out, rows.Err()
}

// Rules returns every categorization rule, oldest first.
func (r records) Rules(ctx context.Context) ([]model.CategorizationRule, error) {
	return r.queryRules(ctx, "")
}

// ActiveRules returns the active categorization rules, oldest first. The
// oldest matching rule wins during categorization.
func (r records) ActiveRules(ctx context.Context) ([]model.CategorizationRule, error) {
	return r.queryRules(ctx, "WHERE is_active = 1")
}

// InsertRule stores a categorization rule.
func (r records) InsertRule(ctx context.Context, rule model.CategorizationRule) (model.CategorizationRule, error) {
	if rule.ID == "" {
		rule.ID = newID()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx, `INSERT INTO categorization_rules (id, envelope_id, keyword, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rule.ID, rule.EnvelopeID, rule.Keyword, boolInt(rule.IsActive), rule.CreatedAt.UTC().Format(time.RFC3339Nano))
	return rule, insertErr("rule", err)
}

// DeleteRule removes a categorization rule.
func (r records) DeleteRule(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM categorization_rules WHERE id = ?`, id)
	return affected("rule", id, res, err)
}
