package ledger

import "context"

// Tx is the minimal storage surface the workflows are written against.
// Implementations must return copies; mutating a returned Record must not
// affect stored state.
type Tx interface {
	// Insert appends one record.
	Insert(ctx context.Context, r Record) error

	// Find returns the records matching f, ordered by DocumentID then
	// Version ascending. It returns an empty slice, not an error, when
	// nothing matches.
	Find(ctx context.Context, f Filter) ([]Record, error)

	// Update applies p to every record matching f and returns the count.
	Update(ctx context.Context, f Filter, p Patch) (int64, error)

	// Delete removes every record matching f and returns the count.
	Delete(ctx context.Context, f Filter) (int64, error)
}

// Store provides atomic units of work over a Tx.
type Store interface {
	// Atomic runs fn as one unit that is serialized against every other
	// Atomic call for the same documentID. If fn returns an error, none of
	// its writes are visible afterwards.
	Atomic(ctx context.Context, documentID string, fn func(Tx) error) error

	// View runs fn against a read-only snapshot. Writes through the Tx
	// passed to fn are rejected.
	View(ctx context.Context, fn func(Tx) error) error
}
