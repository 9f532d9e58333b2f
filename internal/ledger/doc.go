// Package ledger implements the template document version ledger.
//
// A ledger is an append-only set of Records grouped by document identifier.
// Every write goes through one of two workflows:
//
//   - Create: hash the content, compare against the active record, and either
//     return the active record unchanged or append a new active version.
//   - Update: like Create, but starts from the active record and merges the
//     supplied fields over it. Fails with ErrNotFound on an empty group.
//
// # Invariants
//
// I1: versions within a document are 1..k with no gaps or duplicates,
// unless an interior version was deleted explicitly.
//
// I2: at most one record per document is active.
//
// I3: a record's Content and ContentHash never change after insert.
// Only the Active flag is ever updated.
//
// I4: ContentHash == Hash(Content) for every record.
//
// # Deduplication
//
// Dedup compares only against the active record, never against history.
// Submitting content identical to an older, inactive version appends a new
// version with the same hash. There is no separate revert operation.
//
// # Atomicity
//
// Each workflow runs its read-decide-write sequence inside Store.Atomic,
// which backends implement as a transaction (sqlite, pg) or a per-document
// mutex (memstore). The package never logs, retries or masks storage errors.
package ledger
