package extract

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoPages is returned when a file reports zero pages.
var ErrNoPages = errors.New("no pages")

var disableConfigDir sync.Once

// PageCount returns the number of pages. pdfcpu is tried first; when it
// rejects the file the text reader's count is used.
func PageCount(path string) (int, error) {
	// pdfcpu would otherwise create a configuration directory under the
	// user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	n, err := api.PageCountFile(path)
	if err == nil && n > 0 {
		return n, nil
	}

	fallback, ferr := readerPageCount(path)
	if ferr != nil {
		if err == nil {
			err = ErrNoPages
		}
		return 0, &ExtractionError{Path: path, Op: "pages", Err: errors.Join(err, ferr)}
	}
	return fallback, nil
}

func readerPageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
			err = fmt.Errorf("%w: %v", ErrParserPanic, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n = r.NumPage()
	if n <= 0 {
		return 0, ErrNoPages
	}
	return n, nil
}
