// Package sqlstore implements ledger.Store over database/sql.
//
// The sqlite and pg packages supply a Dialect and their schema; everything
// else (query building, scanning, metadata encoding, transaction handling)
// lives here so both backends behave identically.
//
// # Table layout
//
//	versions(id, document_id, version, content, content_hash, is_active,
//	         doc_type, doc_level, purpose, schema_def, defaults, extra,
//	         created_at)
//
// UNIQUE(document_id, version) and a partial unique index on active rows
// back up the invariants the ledger workflows maintain.
//
// # Ordering
//
// Every Find orders by document_id (binary collation) then version, so
// results are identical across backends.
package sqlstore
