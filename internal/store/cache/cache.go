// Package cache implements a ledger.Store that keeps the active record of
// recently read documents in a least-recently-used cache.
//
// Only reads made through View are served from the cache; Atomic units
// always read the nested store so write decisions never see stale data.
// Every Atomic unit evicts its document. The cache is only coherent when
// this process is the sole writer to the nested store.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/roach88/tmplledger/internal/ledger"
)

var _ ledger.Store = &Store{}

// Store wraps a nested ledger.Store.
type Store struct {
	s ledger.Store
	c *lru.Cache // documentID -> ledger.Record

	mu    sync.Mutex
	epoch uint64 // bumped by every invalidation

	hits, misses atomic.Int64
}

// New produces a Store backed by s and caching up to size documents.
func New(s ledger.Store, size int) (*Store, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Store{s: s, c: c}, nil
}

// Stats returns the cache hit and miss counts.
func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Atomic implements ledger.Store.
func (s *Store) Atomic(ctx context.Context, documentID string, fn func(ledger.Tx) error) error {
	s.invalidate(documentID)
	err := s.s.Atomic(ctx, documentID, fn)
	s.invalidate(documentID)
	return err
}

// View implements ledger.Store. The epoch is read before the nested store
// takes its snapshot, so a write that lands between the two keeps the
// snapshot's records out of the cache.
func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	epoch := s.currentEpoch()
	return s.s.View(ctx, func(tx ledger.Tx) error {
		return fn(&viewTx{Tx: tx, s: s, epoch: epoch})
	})
}

func (s *Store) invalidate(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.c.Remove(documentID)
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// fill caches rec unless any Atomic unit started since epoch was read.
func (s *Store) fill(documentID string, epoch uint64, rec ledger.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	s.c.Add(documentID, rec.Clone())
}

type viewTx struct {
	ledger.Tx
	s     *Store
	epoch uint64
}

// Find serves active-record lookups from the cache.
func (t *viewTx) Find(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	if !isActiveLookup(f) {
		return t.Tx.Find(ctx, f)
	}
	if got, ok := t.s.c.Get(f.DocumentID); ok {
		t.s.hits.Add(1)
		return []ledger.Record{got.(ledger.Record).Clone()}, nil
	}
	t.s.misses.Add(1)

	records, err := t.Tx.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(records) == 1 {
		t.s.fill(f.DocumentID, t.epoch, records[0])
	}
	return records, nil
}

func isActiveLookup(f ledger.Filter) bool {
	return f.DocumentID != "" && f.Version == nil && f.Active != nil && *f.Active
}
