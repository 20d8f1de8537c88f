// Package database provides the SQLite state store of the harvest pipeline.
//
// The StateDB holds three tables:
//   - documents: listing entries keyed by URL
//   - files: PDF artifacts keyed by URL with downloaded/processed flags
//   - tables: the first table extracted from a file, as JSON
//
// All writes are idempotent. Document upserts merge field by field (a present
// value replaces the stored one, an absent value keeps it), file registration
// is insert-or-ignore, and the file flags only move forward:
// (downloaded=0, processed=0) → (1, 0) → (1, 1).
//
// SQLite is reached through modernc.org/sqlite, a CGO-free driver, with WAL
// enabled, a busy timeout and a single connection. OpenSQLite is shared with the local search
// index, which lives in its own file.
package database
