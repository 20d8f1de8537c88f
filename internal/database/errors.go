package database

import (
	"errors"
	"fmt"
)

var (
	// ErrDatabaseNotFound is returned by Open when the database file does not
	// exist and CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotDownloaded is returned by MarkProcessed for a file that has not
	// been downloaded. A file is never processed before it is downloaded.
	ErrNotDownloaded = errors.New("file not downloaded")
)

// PersistenceError wraps a failed storage operation.
type PersistenceError struct {
	// Op names the operation, e.g. "upsert document".
	Op string

	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// wrap returns nil for a nil err, otherwise a *PersistenceError.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
