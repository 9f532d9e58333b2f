package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched (via errors.Is) by every not-found failure.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput reports an argument the ledger refuses before touching
// storage, such as an empty document id.
var ErrInvalidInput = errors.New("invalid input")

// ErrReadOnly is returned by a View transaction on any write.
var ErrReadOnly = errors.New("read-only transaction")

// NotFoundError identifies the document, and optionally the version, that
// a lookup failed to find.
type NotFoundError struct {
	DocumentID string

	// Version is 0 when the lookup targeted the active record.
	Version int64
}

func (e *NotFoundError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("document %q version %d: %s", e.DocumentID, e.Version, ErrNotFound)
	}
	return fmt.Sprintf("document %q has no active version: %s", e.DocumentID, ErrNotFound)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err is, or wraps, a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(documentID string, version int64) error {
	return &NotFoundError{DocumentID: documentID, Version: version}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
