package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// busyTimeout makes a second process wait for the write lock instead of
// failing with SQLITE_BUSY.
const busyTimeout = 5 * time.Second

// Options controls how OpenSQLite treats the database file.
type Options struct {
	// CreateIfNotExists creates the parent directory and the file.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions creates missing files and enables WAL.
func DefaultOptions() Options {
	return Options{CreateIfNotExists: true, EnableWAL: true}
}

// OpenSQLite opens dbPath on a single connection. Both the state store and
// the search index go through it. Without CreateIfNotExists a missing file
// yields ErrDatabaseNotFound.
func OpenSQLite(dbPath string, opts Options) (*sql.DB, error) {
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dataSourceName(dbPath, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps pragmas
	// applied for the life of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close() //nolint:errcheck // the ping error is reported
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return db, nil
}

// dataSourceName builds a file: URI carrying the open mode and the pragmas
// the modernc driver applies on connect.
func dataSourceName(dbPath string, opts Options) string {
	q := url.Values{}
	q.Set("mode", "rw")
	if opts.CreateIfNotExists {
		q.Set("mode", "rwc")
	}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	if opts.EnableWAL {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + filepath.ToSlash(dbPath) + "?" + q.Encode()
}

// Stored timestamps come back in the SQLite default layout or, when written
// by Go, as RFC 3339.
var timestampLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time for an unrecognized value.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
