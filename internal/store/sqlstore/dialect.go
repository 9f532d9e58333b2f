package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect captures the differences between SQL backends.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder func(n int) string

	// OrderBy is appended to every Find query.
	OrderBy string

	// Lock is run first inside every Atomic transaction. It may be nil when
	// the backend already serializes writers.
	Lock func(ctx context.Context, tx *sql.Tx, documentID string) error

	// TxOptions is passed to BeginTx for Atomic units.
	TxOptions *sql.TxOptions
}

// QuestionMark is the placeholder style of SQLite and MySQL.
func QuestionMark(int) string { return "?" }

// Dollar is the placeholder style of PostgreSQL.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }
