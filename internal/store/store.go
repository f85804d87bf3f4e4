// Package store persists fundcast records in SQLite. It implements the
// transactional view the ledger writes through and the lookups the envelope
// engine and the snapshot loader read from.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/theirongolddev/fundcast/internal/ledger"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/pipeline"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = model.ErrNotFound

var newID = uuid.NewString

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// records holds the queries shared by Store and Tx.
type records struct {
	q querier
}

// Store is a SQLite-backed record store.
type Store struct {
	records
	db  *sql.DB
	log zerolog.Logger

	attempts uint
	delay    time.Duration
}

// Tx is one open write transaction. It satisfies ledger.Tx.
type Tx struct {
	records
}

// View is an open read transaction. Every query it serves sees the same
// database state.
type View struct {
	records
}

var (
	_ ledger.Store    = (*Store)(nil)
	_ ledger.Tx       = (*Tx)(nil)
	_ pipeline.Pinned = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithBusyRetry sets how often a write transaction is retried when SQLite
// reports the database busy, and the initial delay between attempts.
func WithBusyRetry(attempts uint, delay time.Duration) Option {
	return func(s *Store) {
		s.attempts = attempts
		s.delay = delay
	}
}

// Open opens or creates the database at dbPath.
func Open(dbPath string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	s := &Store{
		records:  records{q: db},
		db:       db,
		log:      zerolog.Nop(),
		attempts: 5,
		delay:    20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	s.log.Debug().Str("path", dbPath).Msg("store opened")

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn in a write transaction, committing only when fn returns nil.
// The whole transaction is retried while SQLite reports the database busy, so
// fn must not keep side effects outside the transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.withTx(ctx, func(tx *Tx) error { return fn(tx) })
}

func (s *Store) withTx(ctx context.Context, fn func(tx *Tx) error) error {
	return retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sqlTx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = sqlTx.Rollback() }()

			if err := fn(&Tx{records{q: sqlTx}}); err != nil {
				return err
			}
			return sqlTx.Commit()
		},
		retry.RetryIf(func(err error) bool {
			if isBusy(err) {
				s.log.Debug().Err(err).Msg("database busy, retrying transaction")
				return true
			}
			return false
		}),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
	)
}

// ReadView runs fn against one read transaction, which is always rolled back.
// In WAL mode writers carry on meanwhile; fn just does not see their commits.
func (s *Store) ReadView(ctx context.Context, fn func(view pipeline.Source) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("opening read view: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()
	return fn(&View{records{q: sqlTx}})
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// insertErr maps uniqueness violations to model.ErrDuplicate.
func insertErr(what string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraint(err) {
		return fmt.Errorf("%w: %s: %v", model.ErrDuplicate, what, err)
	}
	return fmt.Errorf("inserting %s: %w", what, err)
}

// rowErr maps sql.ErrNoRows to ErrNotFound.
func rowErr(what, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return err
}

// affected returns ErrNotFound when an update or delete matched no row.
func affected(what, id string, res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: model.FormatDate(*t), Valid: true}
}

func parseDate(s string) (time.Time, error) {
	return model.ParseDate(s)
}

func parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := model.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
