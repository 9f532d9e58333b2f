package testutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/tmplledger/internal/ledger"
)

// StoreFactory returns a fresh, empty store. Cleanup belongs to t.
type StoreFactory func(t *testing.T) ledger.Store

// NewLedger returns a ledger over s with a StepClock and sequential ids.
func NewLedger(s ledger.Store) *ledger.Ledger {
	return ledger.New(s,
		ledger.WithClock(NewStepClock()),
		ledger.WithIDGenerator(NewSequenceIDGenerator("")),
	)
}

// RunStoreSuite runs the behaviour every ledger.Store must show, both at
// the Tx level and through the Ledger workflows.
func RunStoreSuite(t *testing.T, factory StoreFactory) {
	tests := []struct {
		name string
		fn   func(*testing.T, ledger.Store)
	}{
		{"AtomicRollsBack", testAtomicRollsBack},
		{"AtomicRejectsDuplicateVersion", testAtomicRejectsDuplicateVersion},
		{"AtomicRejectsSecondActive", testAtomicRejectsSecondActive},
		{"ViewIsReadOnly", testViewIsReadOnly},
		{"FindOrdering", testFindOrdering},
		{"RoundTrip", testRoundTrip},
		{"IdempotentCreate", testIdempotentCreate},
		{"MonotonicVersions", testMonotonicVersions},
		{"SingleActive", testSingleActive},
		{"ContentFidelity", testContentFidelity},
		{"RevertCreatesNewVersion", testRevertCreatesNewVersion},
		{"DocumentScenario", testDocumentScenario},
		{"UpdateMergesMetadata", testUpdateMergesMetadata},
		{"UpdateMetadataOnlyIsUnchanged", testUpdateMetadataOnlyIsUnchanged},
		{"UpdateWithoutActive", testUpdateWithoutActive},
		{"UpdateAfterActivatingOlder", testUpdateAfterActivatingOlder},
		{"SetActive", testSetActive},
		{"SetActiveMissing", testSetActiveMissing},
		{"DeleteActiveDoesNotPromote", testDeleteActiveDoesNotPromote},
		{"DeleteVersionMissing", testDeleteVersionMissing},
		{"DeleteAll", testDeleteAll},
		{"ListDocuments", testListDocuments},
		{"Verify", testVerify},
		{"ConcurrentCreates", testConcurrentCreates},
		{"ConcurrentIdenticalCreates", testConcurrentIdenticalCreates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, factory(t))
		})
	}
}

func record(doc string, version int64, content string, active bool) ledger.Record {
	return ledger.Record{
		ID:          fmt.Sprintf("%s-%d", doc, version),
		DocumentID:  doc,
		Version:     version,
		Content:     content,
		ContentHash: ledger.Hash(content),
		Active:      active,
		CreatedAt:   Epoch,
	}
}

func testAtomicRollsBack(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := s.Atomic(ctx, "d", func(tx ledger.Tx) error {
		require.NoError(t, tx.Insert(ctx, record("d", 1, "A", true)))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	err = s.View(ctx, func(tx ledger.Tx) error {
		records, err := tx.Find(ctx, ledger.ByDocument("d"))
		require.NoError(t, err)
		assert.Empty(t, records)
		return nil
	})
	require.NoError(t, err)
}

func testAtomicRejectsDuplicateVersion(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, "d", func(tx ledger.Tx) error {
		return tx.Insert(ctx, record("d", 1, "A", false))
	}))

	err := s.Atomic(ctx, "d", func(tx ledger.Tx) error {
		return tx.Insert(ctx, record("d", 1, "B", false))
	})
	require.Error(t, err)
}

func testAtomicRejectsSecondActive(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, "d", func(tx ledger.Tx) error {
		return tx.Insert(ctx, record("d", 1, "A", true))
	}))

	err := s.Atomic(ctx, "d", func(tx ledger.Tx) error {
		return tx.Insert(ctx, record("d", 2, "B", true))
	})
	require.Error(t, err)
}

func testViewIsReadOnly(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	err := s.View(ctx, func(tx ledger.Tx) error {
		return tx.Insert(ctx, record("d", 1, "A", true))
	})
	require.ErrorIs(t, err, ledger.ErrReadOnly)

	err = s.View(ctx, func(tx ledger.Tx) error {
		_, err := tx.Update(ctx, ledger.ByDocument("d"), ledger.SetActive(false))
		return err
	})
	require.ErrorIs(t, err, ledger.ErrReadOnly)

	err = s.View(ctx, func(tx ledger.Tx) error {
		_, err := tx.Delete(ctx, ledger.ByDocument("d"))
		return err
	})
	require.ErrorIs(t, err, ledger.ErrReadOnly)
}

func testFindOrdering(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	for _, doc := range []string{"b", "a"} {
		require.NoError(t, s.Atomic(ctx, doc, func(tx ledger.Tx) error {
			for _, v := range []int64{3, 1, 2} {
				if err := tx.Insert(ctx, record(doc, v, fmt.Sprint(v), v == 3)); err != nil {
					return err
				}
			}
			return nil
		}))
	}

	var got []string
	require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
		records, err := tx.Find(ctx, ledger.Filter{})
		for _, r := range records {
			got = append(got, fmt.Sprintf("%s/%d", r.DocumentID, r.Version))
		}
		return err
	}))
	assert.Equal(t, []string{"a/1", "a/2", "a/3", "b/1", "b/2", "b/3"}, got)

	require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
		records, err := tx.Find(ctx, ledger.ActiveOf("a"))
		require.Len(t, records, 1)
		assert.Equal(t, int64(3), records[0].Version)
		return err
	}))
}

func testRoundTrip(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	meta := ledger.Metadata{
		Type:     "email",
		Level:    "user",
		Purpose:  "welcome <new> users & friends",
		Schema:   "name: string",
		Defaults: map[string]string{"name": "friend"},
		Extra:    map[string]string{"owner": "growth"},
	}
	rec, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "welcome", Content: "Hi {{name}}", Metadata: meta})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)

	got, err := l.Get(ctx, "welcome", 1)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, "rec-0001", got.ID)
	assert.True(t, got.CreatedAt.Equal(Epoch))
	assert.Equal(t, meta, got.Metadata)

	// Returned records are copies.
	got.Metadata.Defaults["name"] = "mutated"
	again, err := l.GetActive(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "friend", again.Metadata.Defaults["name"])
}

func testIdempotentCreate(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	first, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "same"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)

	for i := 0; i < 3; i++ {
		again, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "same"})
		require.NoError(t, err)
		assert.Equal(t, ledger.Unchanged, outcome)
		assert.Equal(t, first, again)
	}

	history, err := l.History(ctx, "d")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func testMonotonicVersions(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	for i := 1; i <= 5; i++ {
		rec, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: fmt.Sprintf("content %d", i)})
		require.NoError(t, err)
		assert.Equal(t, int64(i), rec.Version)
	}

	history, err := l.History(ctx, "d")
	require.NoError(t, err)
	for i, r := range history {
		assert.Equal(t, int64(i+1), r.Version)
	}
}

func testSingleActive(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	contents := []string{"A", "B", "B", "C", "A"}
	for _, c := range contents {
		_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: c})
		require.NoError(t, err)
		assertSingleActive(t, l, "d")
	}
	_, _, err := l.Update(ctx, ledger.UpdateInput{DocumentID: "d", Content: ptr("D")})
	require.NoError(t, err)
	assertSingleActive(t, l, "d")

	_, err = l.SetActive(ctx, "d", 2)
	require.NoError(t, err)
	assertSingleActive(t, l, "d")
}

func testContentFidelity(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	contents := []string{
		"",
		"plain",
		"trailing newline\n",
		"trailing newline\r\n",
		"  leading and trailing spaces  ",
		"unicode: caf\u00e9 vs cafe\u0301",
		"<html>&amp;</html>",
	}
	for i, c := range contents {
		doc := fmt.Sprintf("doc-%d", i)
		rec, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: doc, Content: c})
		require.NoError(t, err)

		got, err := l.GetActive(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, c, got.Content)
		assert.Equal(t, ledger.Hash(got.Content), got.ContentHash)
		assert.Equal(t, rec.ContentHash, got.ContentHash)
	}

	// No normalization: differently encoded text is different content.
	a, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "norm", Content: "caf\u00e9"})
	require.NoError(t, err)
	b, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "norm", Content: "cafe\u0301"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)
	assert.NotEqual(t, a.ContentHash, b.ContentHash)

	rep, err := l.Verify(ctx, "norm")
	require.NoError(t, err)
	assert.Empty(t, rep.HashMismatches)
}

func testRevertCreatesNewVersion(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	v1, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)
	_, _, err = l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "B"})
	require.NoError(t, err)
	v3, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)

	assert.Equal(t, ledger.Created, outcome)
	assert.Equal(t, int64(3), v3.Version)
	assert.Equal(t, v1.ContentHash, v3.ContentHash)
	assert.NotEqual(t, v1.ID, v3.ID)
}

func testDocumentScenario(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)
	hashA, hashB := ledger.Hash("A"), ledger.Hash("B")

	// 1
	r, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "doc-a", Content: "A"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)
	assert.Equal(t, int64(1), r.Version)
	assert.True(t, r.Active)
	assert.Equal(t, hashA, r.ContentHash)

	// 2
	r, outcome, err = l.Create(ctx, ledger.CreateInput{DocumentID: "doc-a", Content: "A"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Unchanged, outcome)
	assert.Equal(t, int64(1), r.Version)
	assertVersions(t, l, "doc-a", 1)

	// 3
	r, outcome, err = l.Update(ctx, ledger.UpdateInput{DocumentID: "doc-a", Content: ptr("B")})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)
	assert.Equal(t, int64(2), r.Version)
	assert.True(t, r.Active)
	assert.Equal(t, hashB, r.ContentHash)
	v1, err := l.Get(ctx, "doc-a", 1)
	require.NoError(t, err)
	assert.False(t, v1.Active)

	// 4
	r, outcome, err = l.Update(ctx, ledger.UpdateInput{DocumentID: "doc-a", Content: ptr("B")})
	require.NoError(t, err)
	assert.Equal(t, ledger.Unchanged, outcome)
	assert.Equal(t, int64(2), r.Version)
	assertVersions(t, l, "doc-a", 1, 2)

	// 5
	r, outcome, err = l.Create(ctx, ledger.CreateInput{DocumentID: "doc-a", Content: "A"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)
	assert.Equal(t, int64(3), r.Version)
	assert.True(t, r.Active)
	assert.Equal(t, v1.ContentHash, r.ContentHash)
	assertVersions(t, l, "doc-a", 1, 2, 3)
	assertSingleActive(t, l, "doc-a")
}

func testUpdateMergesMetadata(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	_, _, err := l.Create(ctx, ledger.CreateInput{
		DocumentID: "d",
		Content:    "A",
		Metadata: ledger.Metadata{
			Type:     "email",
			Level:    "user",
			Purpose:  "greet",
			Defaults: map[string]string{"name": "friend"},
		},
	})
	require.NoError(t, err)

	r, outcome, err := l.Update(ctx, ledger.UpdateInput{
		DocumentID: "d",
		Content:    ptr("B"),
		Level:      ptr("system"),
		Extra:      map[string]string{"owner": "ops"},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)
	assert.Equal(t, "B", r.Content)
	assert.Equal(t, ledger.Metadata{
		Type:     "email",
		Level:    "system",
		Purpose:  "greet",
		Defaults: map[string]string{"name": "friend"},
		Extra:    map[string]string{"owner": "ops"},
	}, r.Metadata)

	// Content is carried forward when omitted.
	r, outcome, err = l.Update(ctx, ledger.UpdateInput{DocumentID: "d", Purpose: ptr("welcome")})
	require.NoError(t, err)
	assert.Equal(t, ledger.Unchanged, outcome)
	assert.Equal(t, "B", r.Content)
}

func testUpdateMetadataOnlyIsUnchanged(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	created, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A", Metadata: ledger.Metadata{Type: "email"}})
	require.NoError(t, err)

	r, outcome, err := l.Update(ctx, ledger.UpdateInput{DocumentID: "d", Content: ptr("A"), Type: ptr("sms")})
	require.NoError(t, err)
	assert.Equal(t, ledger.Unchanged, outcome)
	assert.Equal(t, created, r)
	assert.Equal(t, "email", r.Metadata.Type)
	assertVersions(t, l, "d", 1)
}

func testUpdateWithoutActive(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	_, _, err := l.Update(ctx, ledger.UpdateInput{DocumentID: "missing", Content: ptr("A")})
	require.ErrorIs(t, err, ledger.ErrNotFound)

	var nf *ledger.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.DocumentID)

	_, _, err = l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)
	require.NoError(t, l.DeleteVersion(ctx, "d", 1))

	_, _, err = l.Update(ctx, ledger.UpdateInput{DocumentID: "d", Content: ptr("B")})
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func testUpdateAfterActivatingOlder(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	for _, c := range []string{"A", "B"} {
		_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: c})
		require.NoError(t, err)
	}
	_, err := l.SetActive(ctx, "d", 1)
	require.NoError(t, err)

	r, outcome, err := l.Update(ctx, ledger.UpdateInput{DocumentID: "d", Content: ptr("C")})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)
	assert.Equal(t, int64(3), r.Version)
	assertVersions(t, l, "d", 1, 2, 3)
	assertSingleActive(t, l, "d")
}

func testSetActive(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	for _, c := range []string{"A", "B", "C"} {
		_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: c})
		require.NoError(t, err)
	}

	r, err := l.SetActive(ctx, "d", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Version)
	assert.True(t, r.Active)

	active, err := l.GetActive(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, int64(1), active.Version)
	assert.Equal(t, "A", active.Content)

	// Re-activating the active version is a no-op.
	_, err = l.SetActive(ctx, "d", 1)
	require.NoError(t, err)
	assertSingleActive(t, l, "d")

	// Creating the active content again stays unchanged.
	_, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Unchanged, outcome)

	// Content matching a newer, inactive version still creates.
	r, outcome, err = l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "C"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)
	assert.Equal(t, int64(4), r.Version)
}

func testSetActiveMissing(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)

	_, err = l.SetActive(ctx, "d", 9)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	var nf *ledger.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(9), nf.Version)

	// The failed activation changed nothing.
	active, err := l.GetActive(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, int64(1), active.Version)

	_, err = l.SetActive(ctx, "d", 0)
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func testDeleteActiveDoesNotPromote(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	for _, c := range []string{"A", "B"} {
		_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: c})
		require.NoError(t, err)
	}
	require.NoError(t, l.DeleteVersion(ctx, "d", 2))

	_, err := l.GetActive(ctx, "d")
	require.ErrorIs(t, err, ledger.ErrNotFound)

	v1, err := l.Get(ctx, "d", 1)
	require.NoError(t, err)
	assert.False(t, v1.Active)

	rep, err := l.Verify(ctx, "d")
	require.NoError(t, err)
	assert.False(t, rep.OK())
	assert.Empty(t, rep.ActiveVersions)

	// With no active record, Create never dedups and the allocator
	// continues from the highest remaining version.
	r, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Created, outcome)
	assert.Equal(t, int64(2), r.Version)
	assertSingleActive(t, l, "d")
}

func testDeleteVersionMissing(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	err := l.DeleteVersion(ctx, "d", 1)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	_, _, err = l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)

	err = l.DeleteVersion(ctx, "d", 2)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	assertVersions(t, l, "d", 1)
}

func testDeleteAll(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	for _, c := range []string{"A", "B", "C"} {
		_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: c})
		require.NoError(t, err)
	}
	_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "other", Content: "X"})
	require.NoError(t, err)

	n, err := l.DeleteAll(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	history, err := l.History(ctx, "d")
	require.NoError(t, err)
	assert.Empty(t, history)

	n, err = l.DeleteAll(ctx, "d")
	require.NoError(t, err)
	assert.Zero(t, n)

	// Other documents are untouched.
	assertVersions(t, l, "other", 1)

	r, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Version)
}

func testListDocuments(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	docs, err := l.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	for _, in := range []ledger.CreateInput{
		{DocumentID: "beta", Content: "1"},
		{DocumentID: "alpha", Content: "1"},
		{DocumentID: "alpha", Content: "2"},
		{DocumentID: "gamma", Content: "1"},
	} {
		_, _, err := l.Create(ctx, in)
		require.NoError(t, err)
	}
	require.NoError(t, l.DeleteVersion(ctx, "gamma", 1))
	_, _, err = l.Create(ctx, ledger.CreateInput{DocumentID: "gamma", Content: "2"})
	require.NoError(t, err)
	_, err = l.SetActive(ctx, "alpha", 1)
	require.NoError(t, err)
	_, _, err = l.Create(ctx, ledger.CreateInput{DocumentID: "delta", Content: "1"})
	require.NoError(t, err)
	require.NoError(t, l.DeleteVersion(ctx, "delta", 1))

	docs, err = l.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ledger.DocumentSummary{
		{DocumentID: "alpha", Versions: 2, LatestVersion: 2, ActiveVersion: 1},
		{DocumentID: "beta", Versions: 1, LatestVersion: 1, ActiveVersion: 1},
		{DocumentID: "gamma", Versions: 1, LatestVersion: 1, ActiveVersion: 1},
	}, docs)
}

func testVerify(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)

	rep, err := l.Verify(ctx, "d")
	require.NoError(t, err)
	assert.True(t, rep.OK())
	assert.Zero(t, rep.Versions)

	for _, c := range []string{"A", "B", "C"} {
		_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: c})
		require.NoError(t, err)
	}
	require.NoError(t, l.DeleteVersion(ctx, "d", 2))

	rep, err = l.Verify(ctx, "d")
	require.NoError(t, err)
	assert.True(t, rep.OK())
	assert.Equal(t, 2, rep.Versions)
	assert.Equal(t, []int64{2}, rep.MissingVersions)
	assert.Equal(t, []int64{3}, rep.ActiveVersions)

	// A record written behind the ledger's back with a bad hash.
	bad := record("d", 4, "D", false)
	bad.ContentHash = ledger.Hash("not D")
	require.NoError(t, s.Atomic(ctx, "d", func(tx ledger.Tx) error {
		return tx.Insert(ctx, bad)
	}))

	rep, err = l.Verify(ctx, "d")
	require.NoError(t, err)
	assert.False(t, rep.OK())
	assert.Equal(t, []int64{4}, rep.HashMismatches)
}

func testConcurrentCreates(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)
	const n = 16

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: fmt.Sprintf("writer %d", i)})
			return err
		})
	}
	require.NoError(t, g.Wait())

	versions := make([]int64, n)
	for i := range versions {
		versions[i] = int64(i + 1)
	}
	assertVersions(t, l, "d", versions...)
	assertSingleActive(t, l, "d")
}

func testConcurrentIdenticalCreates(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := NewLedger(s)
	const n = 16

	outcomes := make([]ledger.Outcome, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, outcome, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "same"})
			outcomes[i] = outcome
			return err
		})
	}
	require.NoError(t, g.Wait())

	created := 0
	for _, o := range outcomes {
		if o == ledger.Created {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assertVersions(t, l, "d", 1)
}

func assertVersions(t *testing.T, l *ledger.Ledger, doc string, want ...int64) {
	t.Helper()
	history, err := l.History(context.Background(), doc)
	require.NoError(t, err)
	got := make([]int64, len(history))
	for i, r := range history {
		got[i] = r.Version
	}
	assert.Equal(t, want, got)
}

func assertSingleActive(t *testing.T, l *ledger.Ledger, doc string) {
	t.Helper()
	history, err := l.History(context.Background(), doc)
	require.NoError(t, err)
	active := 0
	for _, r := range history {
		if r.Active {
			active++
		}
		assert.Equal(t, ledger.Hash(r.Content), r.ContentHash, "version %d", r.Version)
	}
	assert.Equal(t, 1, active)
}

func ptr[T any](v T) *T { return &v }
