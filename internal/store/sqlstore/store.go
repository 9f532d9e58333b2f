package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tmplledger/internal/ledger"
)

var _ ledger.Store = &Store{}

// Store is a database/sql backed ledger.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database. The schema must already exist.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d}
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Atomic implements ledger.Store. fn runs inside a transaction that is
// committed only if fn returns nil.
func (s *Store) Atomic(ctx context.Context, documentID string, fn func(ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, s.dialect.TxOptions)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", s.dialect.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	if s.dialect.Lock != nil {
		if err := s.dialect.Lock(ctx, tx, documentID); err != nil {
			return fmt.Errorf("%s: lock %q: %w", s.dialect.Name, documentID, err)
		}
	}

	if err := fn(&sqlTx{tx: tx, d: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.dialect.Name, err)
	}
	return nil
}

// View implements ledger.Store. The transaction is always rolled back.
func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", s.dialect.Name, err)
	}
	defer tx.Rollback()

	return fn(&sqlTx{tx: tx, d: s.dialect, readOnly: true})
}
