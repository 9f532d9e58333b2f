package ledger

import (
	"context"
	"fmt"
)

// DocumentSummary describes one document group.
type DocumentSummary struct {
	DocumentID    string `json:"document_id"`
	Versions      int    `json:"versions"`
	LatestVersion int64  `json:"latest_version"`

	// ActiveVersion is 0 when the group has no active record.
	ActiveVersion int64 `json:"active_version"`
}

// ListDocuments summarizes every document in the store, ordered by id.
func (l *Ledger) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	var records []Record
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		records, err = tx.Find(ctx, Filter{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	summaries := []DocumentSummary{}
	for _, r := range records {
		n := len(summaries)
		if n == 0 || summaries[n-1].DocumentID != r.DocumentID {
			summaries = append(summaries, DocumentSummary{DocumentID: r.DocumentID})
			n++
		}
		s := &summaries[n-1]
		s.Versions++
		if r.Version > s.LatestVersion {
			s.LatestVersion = r.Version
		}
		if r.Active {
			s.ActiveVersion = r.Version
		}
	}
	return summaries, nil
}

// Report is the result of Verify.
type Report struct {
	DocumentID string `json:"document_id"`
	Versions   int    `json:"versions"`

	// MissingVersions lists gaps in 1..max.
	MissingVersions []int64 `json:"missing_versions,omitempty"`
	// DuplicateVersions lists version numbers stored more than once.
	DuplicateVersions []int64 `json:"duplicate_versions,omitempty"`
	// ActiveVersions lists every version flagged active.
	ActiveVersions []int64 `json:"active_versions"`
	// HashMismatches lists versions whose ContentHash != Hash(Content).
	HashMismatches []int64 `json:"hash_mismatches,omitempty"`
}

// OK reports whether no invariant is violated. A document with no active
// record is OK only when it has no versions; otherwise the missing pointer
// is reported as a problem for the caller to resolve.
func (r Report) OK() bool {
	return len(r.DuplicateVersions) == 0 &&
		len(r.HashMismatches) == 0 &&
		len(r.ActiveVersions) <= 1 &&
		(r.Versions == 0 || len(r.ActiveVersions) == 1)
}

// Verify checks the stored versions of documentID against the ledger
// invariants. Gaps are reported but do not fail OK, since explicit deletion
// of an interior version is allowed.
func (l *Ledger) Verify(ctx context.Context, documentID string) (Report, error) {
	records, err := l.History(ctx, documentID)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		DocumentID:     documentID,
		Versions:       len(records),
		ActiveVersions: []int64{},
	}
	seen := make(map[int64]int, len(records))
	var max int64
	for _, r := range records {
		seen[r.Version]++
		if seen[r.Version] == 2 {
			rep.DuplicateVersions = append(rep.DuplicateVersions, r.Version)
		}
		if r.Version > max {
			max = r.Version
		}
		if r.Active {
			rep.ActiveVersions = append(rep.ActiveVersions, r.Version)
		}
		if Hash(r.Content) != r.ContentHash {
			rep.HashMismatches = append(rep.HashMismatches, r.Version)
		}
	}
	for v := int64(1); v <= max; v++ {
		if seen[v] == 0 {
			rep.MissingVersions = append(rep.MissingVersions, v)
		}
	}
	return rep, nil
}
