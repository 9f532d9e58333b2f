// Package observe implements a ledger.Store that delegates everything to a
// nested store, logging and measuring every operation as it happens.
package observe

import (
	"context"
	"time"

	"github.com/roach88/tmplledger/internal/ledger"
	"github.com/roach88/tmplledger/internal/logger"
	"github.com/roach88/tmplledger/internal/metrics"
)

var _ ledger.Store = &Store{}

// Store wraps a nested ledger.Store, reporting each unit and each
// transaction operation to a logger and to metrics.
type Store struct {
	s   ledger.Store
	log *logger.Logger
	m   *metrics.Metrics
}

// New wraps s. Either log or m may be nil.
func New(s ledger.Store, log *logger.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{s: s, log: log.Component("store"), m: m}
}

func (s *Store) record(op, documentID string, start time.Time, count int64, err error) {
	d := time.Since(start)
	s.log.LogStoreOperation(op, documentID, d, count, err)
	if s.m != nil {
		s.m.RecordStoreOperation(op, d, count, err)
	}
}

// Atomic implements ledger.Store. The unit is recorded as "atomic" once fn
// returns, with the error the nested store reported.
func (s *Store) Atomic(ctx context.Context, documentID string, fn func(ledger.Tx) error) error {
	start := time.Now()
	err := s.s.Atomic(ctx, documentID, func(tx ledger.Tx) error {
		return fn(&observedTx{tx: tx, s: s})
	})
	s.record("atomic", documentID, start, 0, err)
	return err
}

// View implements ledger.Store. The unit is recorded as "view".
func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	start := time.Now()
	err := s.s.View(ctx, func(tx ledger.Tx) error {
		return fn(&observedTx{tx: tx, s: s})
	})
	s.record("view", "", start, 0, err)
	return err
}

// observedTx records every call before returning the nested result.
type observedTx struct {
	tx ledger.Tx
	s  *Store
}

func (t *observedTx) Insert(ctx context.Context, r ledger.Record) error {
	start := time.Now()
	err := t.tx.Insert(ctx, r)
	t.s.record("insert", r.DocumentID, start, 1, err)
	return err
}

func (t *observedTx) Find(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	start := time.Now()
	records, err := t.tx.Find(ctx, f)
	t.s.record("find", f.DocumentID, start, int64(len(records)), err)
	return records, err
}

func (t *observedTx) Update(ctx context.Context, f ledger.Filter, p ledger.Patch) (int64, error) {
	start := time.Now()
	n, err := t.tx.Update(ctx, f, p)
	t.s.record("update", f.DocumentID, start, n, err)
	return n, err
}

func (t *observedTx) Delete(ctx context.Context, f ledger.Filter) (int64, error) {
	start := time.Now()
	n, err := t.tx.Delete(ctx, f)
	t.s.record("delete", f.DocumentID, start, n, err)
	return n, err
}
