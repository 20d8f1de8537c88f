package extract

import (
	"errors"
	"fmt"
)

// ErrParserPanic is wrapped when the PDF parser panics on a malformed file.
var ErrParserPanic = errors.New("pdf parser panic")

// ExtractionError reports a non-fatal extraction failure.
// Callers log it as a warning and keep whatever result was returned with it.
type ExtractionError struct {
	// Path is the PDF being read.
	Path string

	// Op is the failed step: "text", "table", "pages" or "ocr".
	Op string

	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}
