package ledger

import (
	"maps"
	"time"
)

// Metadata holds the descriptive fields carried by every version.
// Update carries each field forward from the active record unless the
// caller supplies a replacement.
type Metadata struct {
	Type     string            `json:"type,omitempty" yaml:"type,omitempty"`
	Level    string            `json:"level,omitempty" yaml:"level,omitempty"`
	Purpose  string            `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Schema   string            `json:"schema,omitempty" yaml:"schema,omitempty"`
	Defaults map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Extra    map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Clone returns a deep copy so callers never share maps with the store.
func (m Metadata) Clone() Metadata {
	m.Defaults = maps.Clone(m.Defaults)
	m.Extra = maps.Clone(m.Extra)
	return m
}

// Record is one immutable snapshot of a document.
type Record struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Version     int64     `json:"version"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Active      bool      `json:"active"`
	Metadata    Metadata  `json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Metadata = r.Metadata.Clone()
	return r
}

// Filter selects records. Zero-valued pointer fields match anything.
// An empty DocumentID matches every document; the workflows always set it.
type Filter struct {
	DocumentID string
	Version    *int64
	Active     *bool
}

// Matches reports whether r satisfies f.
func (f Filter) Matches(r Record) bool {
	if f.DocumentID != "" && r.DocumentID != f.DocumentID {
		return false
	}
	if f.Version != nil && r.Version != *f.Version {
		return false
	}
	if f.Active != nil && r.Active != *f.Active {
		return false
	}
	return true
}

// Patch lists the fields an Update may change. Only Active is mutable.
type Patch struct {
	Active *bool
}

// Apply returns r with p applied.
func (p Patch) Apply(r Record) Record {
	if p.Active != nil {
		r.Active = *p.Active
	}
	return r
}

// ByDocument returns a filter for every version of documentID.
func ByDocument(documentID string) Filter {
	return Filter{DocumentID: documentID}
}

// ByVersion returns a filter for exactly one version.
func ByVersion(documentID string, version int64) Filter {
	return Filter{DocumentID: documentID, Version: &version}
}

// ActiveOf returns a filter for the active record(s) of documentID.
func ActiveOf(documentID string) Filter {
	active := true
	return Filter{DocumentID: documentID, Active: &active}
}

// SetActive returns a patch that sets the active flag to v.
func SetActive(v bool) Patch {
	return Patch{Active: &v}
}
