package store

// Money columns hold decimal strings; date columns hold YYYY-MM-DD.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    kind                 TEXT NOT NULL,
    starting_balance     TEXT NOT NULL,
    current_balance      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS incomes (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    recurrence           TEXT NOT NULL,
    start_date           TEXT NOT NULL,
    account_id           TEXT REFERENCES accounts(id) ON DELETE SET NULL,
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS bills (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    recurrence           TEXT NOT NULL,
    start_date           TEXT NOT NULL,
    end_date             TEXT,
    account_id           TEXT REFERENCES accounts(id) ON DELETE SET NULL,
    reminder_days_before INTEGER NOT NULL DEFAULT 0,
    is_credit_card       INTEGER NOT NULL DEFAULT 0,
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS overrides (
    obligation_id        TEXT NOT NULL,
    date                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    PRIMARY KEY (obligation_id, date)
);

CREATE TABLE IF NOT EXISTS transactions (
    id                   TEXT PRIMARY KEY,
    account_id           TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    to_account_id        TEXT REFERENCES accounts(id) ON DELETE CASCADE,
    kind                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    date                 TEXT NOT NULL,
    timestamp            TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT '',
    related_bill_id      TEXT,
    related_income_id    TEXT,
    envelope_id          TEXT
);

CREATE TABLE IF NOT EXISTS payments (
    id                   TEXT PRIMARY KEY,
    bill_id              TEXT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
    account_id           TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    date                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    transaction_id       TEXT REFERENCES transactions(id) ON DELETE SET NULL,
    UNIQUE (bill_id, date)
);

CREATE TABLE IF NOT EXISTS envelopes (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    color                TEXT NOT NULL DEFAULT '',
    icon                 TEXT NOT NULL DEFAULT '',
    budgeted_amount      TEXT NOT NULL,
    period_kind          TEXT NOT NULL,
    account_id           TEXT REFERENCES accounts(id) ON DELETE SET NULL,
    carry_over_enabled   INTEGER NOT NULL DEFAULT 0,
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS envelope_allocations (
    id                   TEXT PRIMARY KEY,
    envelope_id          TEXT NOT NULL REFERENCES envelopes(id) ON DELETE CASCADE,
    amount               TEXT NOT NULL,
    period_start         TEXT NOT NULL,
    period_end           TEXT NOT NULL,
    funding_income_id    TEXT,
    UNIQUE (envelope_id, period_start)
);

CREATE TABLE IF NOT EXISTS envelope_transfers (
    id                   TEXT PRIMARY KEY,
    from_envelope_id     TEXT NOT NULL REFERENCES envelopes(id) ON DELETE CASCADE,
    to_envelope_id       TEXT NOT NULL REFERENCES envelopes(id) ON DELETE CASCADE,
    amount               TEXT NOT NULL,
    date                 TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS categorization_rules (
    id                   TEXT PRIMARY KEY,
    envelope_id          TEXT NOT NULL REFERENCES envelopes(id) ON DELETE CASCADE,
    keyword              TEXT NOT NULL,
    is_active            INTEGER NOT NULL DEFAULT 1,
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_envelope ON transactions(envelope_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_income ON transactions(related_income_id, date);
`
