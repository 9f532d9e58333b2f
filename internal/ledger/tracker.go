package ledger

import (
	"context"
	"fmt"
)

// activeRecord returns the active record of documentID, or ok=false when
// the group is empty or has no active record. If a backend ever holds more
// than one active row the highest version wins.
func activeRecord(ctx context.Context, tx Tx, documentID string) (rec Record, ok bool, err error) {
	records, err := tx.Find(ctx, ActiveOf(documentID))
	if err != nil {
		return Record{}, false, fmt.Errorf("find active: %w", err)
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[len(records)-1], true, nil
}

// deactivateAll clears the active flag on every record of documentID.
func deactivateAll(ctx context.Context, tx Tx, documentID string) error {
	active := true
	if _, err := tx.Update(ctx, Filter{DocumentID: documentID, Active: &active}, SetActive(false)); err != nil {
		return fmt.Errorf("deactivate: %w", err)
	}
	return nil
}

// activate makes version the single active record of documentID.
// The version is checked before anything is deactivated.
func activate(ctx context.Context, tx Tx, documentID string, version int64) (Record, error) {
	records, err := tx.Find(ctx, ByVersion(documentID, version))
	if err != nil {
		return Record{}, fmt.Errorf("find version: %w", err)
	}
	if len(records) == 0 {
		return Record{}, notFound(documentID, version)
	}
	if err := deactivateAll(ctx, tx, documentID); err != nil {
		return Record{}, err
	}
	if _, err := tx.Update(ctx, ByVersion(documentID, version), SetActive(true)); err != nil {
		return Record{}, fmt.Errorf("activate: %w", err)
	}
	rec := records[0]
	rec.Active = true
	return rec, nil
}
