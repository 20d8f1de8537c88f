package fetch

import (
	"errors"
	"fmt"
)

// Fetch errors.
// A FetchError wraps one of these (or a transport error) so callers can
// use errors.Is to tell a robots block from a bad status.
var (
	// ErrRobotsDisallowed is returned when robots.txt blocks the whole origin.
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

	// ErrUnexpectedStatus is returned for non-2xx responses after retries.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrReadTimeout is returned when a response body stalls for longer
	// than the client timeout.
	ErrReadTimeout = errors.New("response body stalled")
)

// FetchError describes a failed request.
// StatusCode is zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
