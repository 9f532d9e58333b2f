package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/tmplledger/internal/ledger"
)

const columns = `id, document_id, version, content, content_hash, is_active,
	doc_type, doc_level, purpose, schema_def, defaults, extra, created_at`

// sqlTx implements ledger.Tx on a *sql.Tx.
type sqlTx struct {
	tx       *sql.Tx
	d        Dialect
	readOnly bool
}

// where renders f as a WHERE clause, numbering placeholders from start.
func (t *sqlTx) where(f ledger.Filter, start int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = %s", col, t.d.Placeholder(start+len(args)-1)))
	}
	if f.DocumentID != "" {
		add("document_id", f.DocumentID)
	}
	if f.Version != nil {
		add("version", *f.Version)
	}
	if f.Active != nil {
		add("is_active", *f.Active)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Insert implements ledger.Tx.
func (t *sqlTx) Insert(ctx context.Context, r ledger.Record) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	defaults, err := marshalMap(r.Metadata.Defaults)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	extra, err := marshalMap(r.Metadata.Extra)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	ph := make([]string, 13)
	for i := range ph {
		ph[i] = t.d.Placeholder(i + 1)
	}
	q := fmt.Sprintf(`INSERT INTO versions (%s) VALUES (%s)`, columns, strings.Join(ph, ", "))

	_, err = t.tx.ExecContext(ctx, q,
		r.ID,
		r.DocumentID,
		r.Version,
		r.Content,
		r.ContentHash,
		r.Active,
		r.Metadata.Type,
		r.Metadata.Level,
		r.Metadata.Purpose,
		r.Metadata.Schema,
		defaults,
		extra,
		formatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Find implements ledger.Tx.
func (t *sqlTx) Find(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	where, args := t.where(f, 1)
	q := `SELECT ` + columns + ` FROM versions` + where + ` ` + t.d.OrderBy

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	records := []ledger.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return records, nil
}

// Update implements ledger.Tx. Only the active flag can be patched.
func (t *sqlTx) Update(ctx context.Context, f ledger.Filter, p ledger.Patch) (int64, error) {
	if t.readOnly {
		return 0, ledger.ErrReadOnly
	}
	if p.Active == nil {
		return 0, nil
	}
	where, args := t.where(f, 2)
	q := `UPDATE versions SET is_active = ` + t.d.Placeholder(1) + where

	res, err := t.tx.ExecContext(ctx, q, append([]any{*p.Active}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("update versions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update versions: rows affected: %w", err)
	}
	return n, nil
}

// Delete implements ledger.Tx.
func (t *sqlTx) Delete(ctx context.Context, f ledger.Filter) (int64, error) {
	if t.readOnly {
		return 0, ledger.ErrReadOnly
	}
	where, args := t.where(f, 1)
	res, err := t.tx.ExecContext(ctx, `DELETE FROM versions`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete versions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete versions: rows affected: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (ledger.Record, error) {
	var (
		r               ledger.Record
		defaults, extra string
		createdAt       string
	)
	err := s.Scan(
		&r.ID,
		&r.DocumentID,
		&r.Version,
		&r.Content,
		&r.ContentHash,
		&r.Active,
		&r.Metadata.Type,
		&r.Metadata.Level,
		&r.Metadata.Purpose,
		&r.Metadata.Schema,
		&defaults,
		&extra,
		&createdAt,
	)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("scan version: %w", err)
	}
	if r.Metadata.Defaults, err = unmarshalMap(defaults); err != nil {
		return ledger.Record{}, fmt.Errorf("scan version: defaults: %w", err)
	}
	if r.Metadata.Extra, err = unmarshalMap(extra); err != nil {
		return ledger.Record{}, fmt.Errorf("scan version: extra: %w", err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return ledger.Record{}, fmt.Errorf("scan version: %w", err)
	}
	return r, nil
}
