package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultCellGap is the horizontal gap, in points, that separates two table
// cells on the same row.
const DefaultCellGap = 12.0

// Extractor extracts text and tables from PDF files.
type Extractor struct {
	// ocr renders and recognizes pages when the text layer is blank.
	// Nil disables the fallback.
	ocr OCR

	// cellGap separates table cells.
	cellGap float64

	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOCR installs the OCR fallback.
func WithOCR(ocr OCR) Option {
	return func(e *Extractor) {
		e.ocr = ocr
	}
}

// WithCellGap sets the horizontal gap that starts a new table cell.
func WithCellGap(gap float64) Option {
	return func(e *Extractor) {
		if gap > 0 {
			e.cellGap = gap
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		cellGap: DefaultCellGap,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// ExtractText returns the text of every non-empty page joined by a blank
// line.
//
// On a malformed file the text read so far is returned with an
// *ExtractionError. When useOCR is set, an OCR fallback is installed and the
// text is blank, the pages are recognized instead, even if the text layer
// could not be read at all. An OCR failure yields empty text and an
// *ExtractionError.
func (e *Extractor) ExtractText(ctx context.Context, path string, useOCR bool) (string, error) {
	text, readErr := readText(path)
	var err error
	if readErr != nil {
		err = &ExtractionError{Path: path, Op: "text", Err: readErr}
	}

	if !useOCR || strings.TrimSpace(text) != "" || e.ocr == nil {
		return text, err
	}

	if err != nil {
		e.logger.Warn("text_layer_unreadable", "path", path, "error", err.Error())
	}
	e.logger.Debug("ocr_fallback", "path", path)
	ocrText, ocrErr := e.ocr.Recognize(ctx, path)
	if ocrErr != nil {
		return "", &ExtractionError{Path: path, Op: "ocr", Err: ocrErr}
	}
	return ocrText, nil
}

// readText reads the text layer page by page.
func readText(path string) (text string, err error) {
	pages := make([]string, 0)

	defer func() {
		if r := recover(); r != nil {
			text = strings.Join(pages, "\n\n")
			err = fmt.Errorf("%w: %v", ErrParserPanic, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		// Font resource names are page-local, so no font map is shared.
		s, err := page.GetPlainText(nil)
		if err != nil {
			return strings.Join(pages, "\n\n"), fmt.Errorf("page %d: %w", i, err)
		}
		if s = strings.TrimSpace(s); s != "" {
			pages = append(pages, s)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}
