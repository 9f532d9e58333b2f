// Package memstore is an in-memory ledger.Store.
//
// Atomic units hold a per-document mutex and work on a private copy of that
// document's records, which replaces the shared state only when the unit
// succeeds. View reads a consistent snapshot under a read lock.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/tmplledger/internal/ledger"
)

var _ ledger.Store = &Store{}

// ErrConflict is returned when an insert would duplicate a
// (document, version) pair or a second active record.
var ErrConflict = errors.New("conflict")

// ErrScope is returned when an Atomic unit touches another document.
var ErrScope = errors.New("filter outside atomic document")

// Store keeps every record in memory.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]ledger.Record

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		docs:  make(map[string][]ledger.Record),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) lockFor(documentID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[documentID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[documentID] = m
	}
	return m
}

// Atomic implements ledger.Store.
func (s *Store) Atomic(ctx context.Context, documentID string, fn func(ledger.Tx) error) error {
	m := s.lockFor(documentID)
	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	working := cloneAll(s.docs[documentID])
	s.mu.RUnlock()

	tx := &docTx{documentID: documentID, records: working}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tx.records) == 0 {
		delete(s.docs, documentID)
	} else {
		s.docs[documentID] = tx.records
	}
	return nil
}

// View implements ledger.Store.
func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snap := make(map[string][]ledger.Record, len(s.docs))
	for id, recs := range s.docs {
		snap[id] = cloneAll(recs)
	}
	s.mu.RUnlock()
	return fn(&viewTx{docs: snap})
}

// docTx is scoped to one document and stages writes privately.
type docTx struct {
	documentID string
	records    []ledger.Record
}

func (t *docTx) scope(f ledger.Filter) error {
	if f.DocumentID != t.documentID {
		return fmt.Errorf("%w: %q (atomic unit is %q)", ErrScope, f.DocumentID, t.documentID)
	}
	return nil
}

func (t *docTx) Insert(ctx context.Context, r ledger.Record) error {
	if r.DocumentID != t.documentID {
		return fmt.Errorf("%w: %q (atomic unit is %q)", ErrScope, r.DocumentID, t.documentID)
	}
	for _, existing := range t.records {
		if existing.Version == r.Version {
			return fmt.Errorf("%w: %q version %d exists", ErrConflict, r.DocumentID, r.Version)
		}
		if r.Active && existing.Active {
			return fmt.Errorf("%w: %q already has active version %d", ErrConflict, r.DocumentID, existing.Version)
		}
	}
	t.records = append(t.records, r.Clone())
	sort.Slice(t.records, func(i, j int) bool { return t.records[i].Version < t.records[j].Version })
	return nil
}

func (t *docTx) Find(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	if err := t.scope(f); err != nil {
		return nil, err
	}
	return filter(t.records, f), nil
}

func (t *docTx) Update(ctx context.Context, f ledger.Filter, p ledger.Patch) (int64, error) {
	if err := t.scope(f); err != nil {
		return 0, err
	}
	var n int64
	for i, r := range t.records {
		if f.Matches(r) {
			t.records[i] = p.Apply(r)
			n++
		}
	}
	var active []int64
	for _, r := range t.records {
		if r.Active {
			active = append(active, r.Version)
		}
	}
	if len(active) > 1 {
		return 0, fmt.Errorf("%w: %q would have active versions %v", ErrConflict, t.documentID, active)
	}
	return n, nil
}

func (t *docTx) Delete(ctx context.Context, f ledger.Filter) (int64, error) {
	if err := t.scope(f); err != nil {
		return 0, err
	}
	kept := t.records[:0]
	var n int64
	for _, r := range t.records {
		if f.Matches(r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	t.records = kept
	return n, nil
}

// viewTx reads a snapshot across documents.
type viewTx struct {
	docs map[string][]ledger.Record
}

func (t *viewTx) Insert(context.Context, ledger.Record) error { return ledger.ErrReadOnly }

func (t *viewTx) Update(context.Context, ledger.Filter, ledger.Patch) (int64, error) {
	return 0, ledger.ErrReadOnly
}

func (t *viewTx) Delete(context.Context, ledger.Filter) (int64, error) {
	return 0, ledger.ErrReadOnly
}

func (t *viewTx) Find(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	if f.DocumentID != "" {
		return filter(t.docs[f.DocumentID], f), nil
	}
	ids := make([]string, 0, len(t.docs))
	for id := range t.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := []ledger.Record{}
	for _, id := range ids {
		out = append(out, filter(t.docs[id], f)...)
	}
	return out, nil
}

func filter(records []ledger.Record, f ledger.Filter) []ledger.Record {
	out := []ledger.Record{}
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func cloneAll(records []ledger.Record) []ledger.Record {
	out := make([]ledger.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
