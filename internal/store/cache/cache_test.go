package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmplledger/internal/ledger"
	"github.com/roach88/tmplledger/internal/store/memstore"
	"github.com/roach88/tmplledger/internal/testutil"
)

func newStore(t *testing.T, size int) *Store {
	t.Helper()
	s, err := New(memstore.New(), size)
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	testutil.RunStoreSuite(t, func(t *testing.T) ledger.Store { return newStore(t, 8) })
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(memstore.New(), 0)
	require.Error(t, err)
}

func TestCache_HitsAndInvalidation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 8)
	l := testutil.NewLedger(s)

	_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)

	got, err := l.GetActive(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Content)
	hits, misses := s.Stats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(1), misses)

	got, err = l.GetActive(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Content)
	hits, _ = s.Stats()
	assert.Equal(t, int64(1), hits)

	// A write evicts the document.
	_, _, err = l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "B"})
	require.NoError(t, err)

	got, err = l.GetActive(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Content)
	assert.Equal(t, int64(2), got.Version)
	hits, misses = s.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}

func TestCache_CachedRecordIsCopied(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 8)
	l := testutil.NewLedger(s)

	_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A", Metadata: ledger.Metadata{
		Defaults: map[string]string{"k": "v"},
	}})
	require.NoError(t, err)

	first, err := l.GetActive(ctx, "d")
	require.NoError(t, err)
	first.Metadata.Defaults["k"] = "changed"

	second, err := l.GetActive(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "v", second.Metadata.Defaults["k"])
}

func TestCache_MissingDocumentNotCached(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 8)
	l := testutil.NewLedger(s)

	_, err := l.GetActive(ctx, "d")
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = l.GetActive(ctx, "d")
	require.ErrorIs(t, err, ledger.ErrNotFound)

	hits, misses := s.Stats()
	assert.Zero(t, hits)
	assert.Equal(t, int64(2), misses)
}

func TestCache_FailedAtomicStillEvicts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 8)
	l := testutil.NewLedger(s)

	_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)
	_, err = l.GetActive(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, 1, s.c.Len())

	_, err = l.SetActive(ctx, "d", 7)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, 0, s.c.Len())
}

func TestCache_WriteDuringViewIsNotCached(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 8)
	l := testutil.NewLedger(s)

	_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)

	// The View's snapshot predates the write of version 2.
	err = s.View(ctx, func(tx ledger.Tx) error {
		if _, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "B"}); err != nil {
			return err
		}
		_, err := tx.Find(ctx, ledger.ActiveOf("d"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.c.Len())

	got, err := l.GetActive(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "B", got.Content)
}

func TestIsActiveLookup(t *testing.T) {
	assert.True(t, isActiveLookup(ledger.ActiveOf("d")))
	assert.False(t, isActiveLookup(ledger.ByDocument("d")))
	assert.False(t, isActiveLookup(ledger.ByVersion("d", 1)))
	assert.False(t, isActiveLookup(ledger.Filter{Active: ledger.SetActive(true).Active}))
	assert.False(t, isActiveLookup(ledger.Filter{DocumentID: "d", Active: ledger.SetActive(false).Active}))
}
