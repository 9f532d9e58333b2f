package ledger

import (
	"context"
	"fmt"
	"maps"
	"strings"
)

// Outcome tells a caller whether a write appended a version.
type Outcome int

const (
	// Unchanged means the content matched the active record; nothing was written.
	Unchanged Outcome = iota
	// Created means a new version was appended and made active.
	Created
)

func (o Outcome) String() string {
	if o == Created {
		return "created"
	}
	return "unchanged"
}

// CreateInput is the argument to Create.
type CreateInput struct {
	DocumentID string
	Content    string
	Metadata   Metadata
}

// UpdateInput is the argument to Update. Nil fields are carried forward
// from the active record.
type UpdateInput struct {
	DocumentID string
	Content    *string
	Type       *string
	Level      *string
	Purpose    *string
	Schema     *string
	Defaults   map[string]string
	Extra      map[string]string
}

// Ledger runs the versioning workflows against a Store.
type Ledger struct {
	store Store
	clock Clock
	ids   IDGenerator
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for CreatedAt.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithIDGenerator overrides the record ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) { l.ids = g }
}

// New returns a Ledger over store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		clock: SystemClock{},
		ids:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create stores content as the next version of in.DocumentID unless it is
// byte-identical to the active version, in which case the active record is
// returned and nothing is written.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (Record, Outcome, error) {
	if err := checkDocumentID(in.DocumentID); err != nil {
		return Record{}, Unchanged, err
	}

	var (
		out     Record
		outcome Outcome
	)
	err := l.store.Atomic(ctx, in.DocumentID, func(tx Tx) error {
		h := Hash(in.Content)

		latest, ok, err := activeRecord(ctx, tx, in.DocumentID)
		if err != nil {
			return err
		}
		if ok && latest.ContentHash == h {
			out, outcome = latest, Unchanged
			return nil
		}

		version, err := nextVersion(ctx, tx, in.DocumentID)
		if err != nil {
			return err
		}
		out, err = l.appendActive(ctx, tx, in.DocumentID, version, in.Content, h, in.Metadata)
		outcome = Created
		return err
	})
	if err != nil {
		return Record{}, Unchanged, fmt.Errorf("create %q: %w", in.DocumentID, err)
	}
	return out.Clone(), outcome, nil
}

// Update merges in over the active record of in.DocumentID. A new version
// is appended only when the merged content differs from the active
// content; metadata-only changes return the active record unchanged.
func (l *Ledger) Update(ctx context.Context, in UpdateInput) (Record, Outcome, error) {
	if err := checkDocumentID(in.DocumentID); err != nil {
		return Record{}, Unchanged, err
	}

	var (
		out     Record
		outcome Outcome
	)
	err := l.store.Atomic(ctx, in.DocumentID, func(tx Tx) error {
		latest, ok, err := activeRecord(ctx, tx, in.DocumentID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(in.DocumentID, 0)
		}

		content, meta := merge(latest, in)
		h := Hash(content)
		if h == latest.ContentHash {
			out, outcome = latest, Unchanged
			return nil
		}

		// The allocator returns latest.Version+1 unless SetActive moved the
		// pointer below the highest version, where +1 would collide.
		version, err := nextVersion(ctx, tx, in.DocumentID)
		if err != nil {
			return err
		}
		out, err = l.appendActive(ctx, tx, in.DocumentID, version, content, h, meta)
		outcome = Created
		return err
	})
	if err != nil {
		return Record{}, Unchanged, fmt.Errorf("update %q: %w", in.DocumentID, err)
	}
	return out.Clone(), outcome, nil
}

// appendActive deactivates the group and inserts a new active record.
func (l *Ledger) appendActive(ctx context.Context, tx Tx, documentID string, version int64, content, hash string, meta Metadata) (Record, error) {
	if err := deactivateAll(ctx, tx, documentID); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:          l.ids.Generate(),
		DocumentID:  documentID,
		Version:     version,
		Content:     content,
		ContentHash: hash,
		Active:      true,
		Metadata:    meta.Clone(),
		CreatedAt:   l.clock.Now(),
	}
	if err := tx.Insert(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("insert version %d: %w", version, err)
	}
	return rec, nil
}

// merge applies the supplied fields of in over latest.
func merge(latest Record, in UpdateInput) (string, Metadata) {
	content := latest.Content
	if in.Content != nil {
		content = *in.Content
	}
	meta := latest.Metadata.Clone()
	if in.Type != nil {
		meta.Type = *in.Type
	}
	if in.Level != nil {
		meta.Level = *in.Level
	}
	if in.Purpose != nil {
		meta.Purpose = *in.Purpose
	}
	if in.Schema != nil {
		meta.Schema = *in.Schema
	}
	if in.Defaults != nil {
		meta.Defaults = maps.Clone(in.Defaults)
	}
	if in.Extra != nil {
		meta.Extra = maps.Clone(in.Extra)
	}
	return content, meta
}

// GetActive returns the active record of documentID.
func (l *Ledger) GetActive(ctx context.Context, documentID string) (Record, error) {
	if err := checkDocumentID(documentID); err != nil {
		return Record{}, err
	}
	var out Record
	err := l.store.View(ctx, func(tx Tx) error {
		rec, ok, err := activeRecord(ctx, tx, documentID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(documentID, 0)
		}
		out = rec
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("get active %q: %w", documentID, err)
	}
	return out.Clone(), nil
}

// Get returns one version of documentID.
func (l *Ledger) Get(ctx context.Context, documentID string, version int64) (Record, error) {
	if err := checkVersion(documentID, version); err != nil {
		return Record{}, err
	}
	var out Record
	err := l.store.View(ctx, func(tx Tx) error {
		records, err := tx.Find(ctx, ByVersion(documentID, version))
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return notFound(documentID, version)
		}
		out = records[0]
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("get %q v%d: %w", documentID, version, err)
	}
	return out.Clone(), nil
}

// SetActive makes version the only active record of documentID.
// Nothing changes when the version does not exist.
func (l *Ledger) SetActive(ctx context.Context, documentID string, version int64) (Record, error) {
	if err := checkVersion(documentID, version); err != nil {
		return Record{}, err
	}
	var out Record
	err := l.store.Atomic(ctx, documentID, func(tx Tx) error {
		rec, err := activate(ctx, tx, documentID, version)
		out = rec
		return err
	})
	if err != nil {
		return Record{}, fmt.Errorf("set active %q v%d: %w", documentID, version, err)
	}
	return out.Clone(), nil
}

// History returns every version of documentID in ascending order.
func (l *Ledger) History(ctx context.Context, documentID string) ([]Record, error) {
	if err := checkDocumentID(documentID); err != nil {
		return nil, err
	}
	var out []Record
	err := l.store.View(ctx, func(tx Tx) error {
		records, err := tx.Find(ctx, ByDocument(documentID))
		out = records
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("history %q: %w", documentID, err)
	}
	history := make([]Record, len(out))
	for i, r := range out {
		history[i] = r.Clone()
	}
	return history, nil
}

// DeleteVersion removes exactly one version. Deleting the active version
// leaves the document with no active record; nothing is promoted.
func (l *Ledger) DeleteVersion(ctx context.Context, documentID string, version int64) error {
	if err := checkVersion(documentID, version); err != nil {
		return err
	}
	err := l.store.Atomic(ctx, documentID, func(tx Tx) error {
		n, err := tx.Delete(ctx, ByVersion(documentID, version))
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound(documentID, version)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %q v%d: %w", documentID, version, err)
	}
	return nil
}

// DeleteAll removes every version of documentID and returns how many were
// removed. Removing nothing is not an error.
func (l *Ledger) DeleteAll(ctx context.Context, documentID string) (int64, error) {
	if err := checkDocumentID(documentID); err != nil {
		return 0, err
	}
	var n int64
	err := l.store.Atomic(ctx, documentID, func(tx Tx) error {
		var err error
		n, err = tx.Delete(ctx, ByDocument(documentID))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete all %q: %w", documentID, err)
	}
	return n, nil
}

func checkDocumentID(documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return invalidf("document id is required")
	}
	return nil
}

func checkVersion(documentID string, version int64) error {
	if err := checkDocumentID(documentID); err != nil {
		return err
	}
	if version <= 0 {
		return invalidf("version must be positive, got %d", version)
	}
	return nil
}
