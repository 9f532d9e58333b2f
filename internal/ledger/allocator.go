package ledger

import (
	"context"
	"fmt"
)

// nextVersion returns 1 for an empty group, otherwise max(version)+1.
// It must run on the same Tx as the insert that consumes the number.
func nextVersion(ctx context.Context, tx Tx, documentID string) (int64, error) {
	records, err := tx.Find(ctx, ByDocument(documentID))
	if err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}
	var max int64
	for _, r := range records {
		if r.Version > max {
			max = r.Version
		}
	}
	return max + 1, nil
}
