// Package pg opens a PostgreSQL-backed ledger store.
//
// Atomic units run in a READ COMMITTED transaction that first takes a
// transaction-scoped advisory lock keyed by the document id, so concurrent
// writers to one document queue behind each other while other documents
// proceed in parallel.
package pg

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // register the postgres driver for sql.Open

	"github.com/roach88/tmplledger/internal/store/sqlstore"
)

// Schema is the SQL that Open executes.
// (If the table exists, it must have the columns, constraints, and
// indexing described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS versions (
  id           TEXT    PRIMARY KEY,
  document_id  TEXT    NOT NULL,
  version      BIGINT  NOT NULL CHECK (version > 0),
  content      TEXT    NOT NULL,
  content_hash TEXT    NOT NULL,
  is_active    BOOLEAN NOT NULL DEFAULT FALSE,
  doc_type     TEXT    NOT NULL DEFAULT '',
  doc_level    TEXT    NOT NULL DEFAULT '',
  purpose      TEXT    NOT NULL DEFAULT '',
  schema_def   TEXT    NOT NULL DEFAULT '',
  defaults     TEXT    NOT NULL DEFAULT '{}',
  extra        TEXT    NOT NULL DEFAULT '{}',
  created_at   TEXT    NOT NULL,
  UNIQUE (document_id, version)
);

CREATE INDEX IF NOT EXISTS idx_versions_hash ON versions (document_id, content_hash);

CREATE UNIQUE INDEX IF NOT EXISTS idx_versions_single_active
  ON versions (document_id) WHERE is_active;
`

// Dialect is the sqlstore dialect for PostgreSQL.
var Dialect = sqlstore.Dialect{
	Name:        "pg",
	Placeholder: sqlstore.Dollar,
	OrderBy:     `ORDER BY document_id COLLATE "C" ASC, version ASC`,
	Lock:        lockDocument,
	TxOptions:   &sql.TxOptions{Isolation: sql.LevelReadCommitted},
}

func lockDocument(ctx context.Context, tx *sql.Tx, documentID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, documentID)
	return err
}

// Open connects to dsn and applies Schema.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New produces a Store using db for storage. It creates the versions table
// if it does not exist.
func New(ctx context.Context, db *sql.DB) (*sqlstore.Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return sqlstore.New(db, Dialect), nil
}
