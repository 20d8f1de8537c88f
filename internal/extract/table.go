package extract

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/nao1215/pdfharvest/internal/model"
)

// charWidth estimates the advance of one glyph at 12pt when the parser
// does not report a width.
const charWidth = 6.0

// minTableRows and minTableCols bound what counts as a table.
const (
	minTableRows = 2
	minTableCols = 2
)

// ExtractFirstTable returns the first table of the first page that has one.
// Pages are scanned in order and the scan stops at the first hit. No table
// yields an empty result. A read failure yields an empty result and an
// *ExtractionError.
func (e *Extractor) ExtractFirstTable(path string) (model.Table, error) {
	table, err := e.firstTable(path)
	if err != nil {
		return model.Table{}, &ExtractionError{Path: path, Op: "table", Err: err}
	}
	return table, nil
}

func (e *Extractor) firstTable(path string) (table model.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = fmt.Errorf("%w: %v", ErrParserPanic, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		if t := findTable(rows, e.cellGap); len(t) > 0 {
			e.logger.Debug("table_found", "path", path, "page", i, "rows", len(t))
			return t, nil
		}
	}

	return model.Table{}, nil
}

// findTable returns the first run of consecutive rows that each split into
// at least two cells. Rows are expected top to bottom.
func findTable(rows pdf.Rows, cellGap float64) model.Table {
	run := make(model.Table, 0)

	for _, row := range rows {
		cells := splitCells(row.Content, cellGap)
		if len(cells) >= minTableCols {
			run = append(run, cells)
			continue
		}
		if len(cells) == 0 {
			// Positioning operators leave empty fragments behind.
			continue
		}
		if len(run) >= minTableRows {
			return run
		}
		run = run[:0]
	}

	if len(run) >= minTableRows {
		return run
	}
	return nil
}

// splitCells groups the fragments of one row into cells. A fragment starting
// more than cellGap after the estimated end of the previous one opens a new
// cell; closer fragments are joined with a space.
func splitCells(texts pdf.TextHorizontal, cellGap float64) []string {
	sorted := slices.Clone(texts)
	slices.SortStableFunc(sorted, func(a, b pdf.Text) int {
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		}
		return 0
	})

	cells := make([]string, 0)
	var cur strings.Builder
	var end float64

	for _, t := range sorted {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}

		if cur.Len() > 0 && t.X-end > cellGap {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(s)

		w := t.W
		if w <= 0 {
			w = float64(utf8.RuneCountInString(t.S)) * charWidth
		}
		end = max(end, t.X+w)
	}

	if cur.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cur.String()))
	}
	return cells
}
