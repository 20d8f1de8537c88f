package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/nao1215/pdfharvest/internal/model"
)

// textItem is one positioned string on a generated page.
type textItem struct {
	x, y float64
	s    string
}

// buildPDF generates a minimal PDF with one page per entry. Each item is
// drawn in its own text object positioned by a text matrix. A page with no
// items has no content stream.
func buildPDF(pages [][]textItem) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	objCount := 3 + 2*len(pages)
	offsets := make([]int, objCount+1)

	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, strconv.Itoa(4+2*i)+" 0 R")
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [" + strings.Join(kids, " ") + "] /Count " + strconv.Itoa(len(pages)) + " >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")

	for i, items := range pages {
		pageObj := 4 + 2*i
		contentObj := pageObj + 1

		offsets[pageObj] = b.Len()
		b.WriteString(strconv.Itoa(pageObj) + " 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >>")
		if len(items) > 0 {
			b.WriteString(" /Contents " + strconv.Itoa(contentObj) + " 0 R")
		}
		b.WriteString(" >>\nendobj\n")

		var stream strings.Builder
		for _, it := range items {
			stream.WriteString("BT\n/F1 12 Tf\n1 0 0 1 ")
			stream.WriteString(strconv.FormatFloat(it.x, 'f', -1, 64) + " " + strconv.FormatFloat(it.y, 'f', -1, 64))
			stream.WriteString(" Tm\n(" + escapePDF(it.s) + ") Tj\nET\n")
		}

		offsets[contentObj] = b.Len()
		b.WriteString(strconv.Itoa(contentObj) + " 0 obj\n<< /Length " + strconv.Itoa(stream.Len()) + " >>\nstream\n")
		b.WriteString(stream.String())
		b.WriteString("\nendstream\nendobj\n")
	}

	xref := b.Len()
	b.WriteString("xref\n0 " + strconv.Itoa(objCount+1) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= objCount; i++ {
		off := strconv.Itoa(offsets[i])
		b.WriteString(strings.Repeat("0", 10-len(off)) + off + " 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size " + strconv.Itoa(objCount+1) + " /Root 1 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xref) + "\n%%EOF\n")

	return []byte(b.String())
}

func escapePDF(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

// writePDF writes a generated PDF into a temp dir and returns its path.
func writePDF(t *testing.T, pages [][]textItem) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, buildPDF(pages), 0o600); err != nil {
		t.Fatalf("failed to write pdf: %v", err)
	}
	return path
}

// writeFile writes arbitrary bytes into a temp dir and returns the path.
func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tablePage is a page with a heading, a three-row table and a footer line.
var tablePage = []textItem{
	{x: 72, y: 740, s: "Consumer"},
	{x: 124, y: 740, s: "Price"},
	{x: 72, y: 700, s: "Item"},
	{x: 200, y: 700, s: "Index"},
	{x: 330, y: 700, s: "Change"},
	{x: 72, y: 680, s: "Food"},
	{x: 200, y: 680, s: "182.4"},
	{x: 330, y: 680, s: "+1.2"},
	{x: 72, y: 660, s: "Fuel"},
	{x: 200, y: 660, s: "171.0"},
	{x: 330, y: 660, s: "-0.4"},
	{x: 72, y: 600, s: "Source: National Statistics Office"},
}

// fakeOCR returns a fixed result.
type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) Recognize(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

// TestExtractText tests text extraction.
func TestExtractText(t *testing.T) {
	t.Parallel()

	t.Run("pages are joined by a blank line", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, [][]textItem{
			{{x: 72, y: 720, s: "Hello World"}},
			{{x: 72, y: 720, s: "Second page"}},
		})

		text, err := New(WithLogger(quietLogger())).ExtractText(context.Background(), path, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "Hello World\n\nSecond page" {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("corrupt file is a warning with empty text", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "broken.pdf", []byte("this is not a pdf at all"))

		text, err := New(WithLogger(quietLogger())).ExtractText(context.Background(), path, false)
		if err == nil {
			t.Fatal("expected error")
		}
		var ee *ExtractionError
		if !errors.As(err, &ee) {
			t.Fatalf("expected *ExtractionError, got %T", err)
		}
		if ee.Op != "text" || ee.Path != path {
			t.Errorf("error = %+v", ee)
		}
		if text != "" {
			t.Errorf("text = %q, want empty", text)
		}
	})

	t.Run("missing file is a warning", func(t *testing.T) {
		t.Parallel()

		_, err := New(WithLogger(quietLogger())).ExtractText(context.Background(), filepath.Join(t.TempDir(), "none.pdf"), false)
		var ee *ExtractionError
		if !errors.As(err, &ee) {
			t.Fatalf("expected *ExtractionError, got %v", err)
		}
	})

	t.Run("ocr is used only for blank text when requested", func(t *testing.T) {
		t.Parallel()

		blank := writePDF(t, [][]textItem{{}})
		withText := writePDF(t, [][]textItem{{{x: 72, y: 720, s: "Typed"}}})

		ocr := &fakeOCR{text: "scanned text"}
		e := New(WithOCR(ocr), WithLogger(quietLogger()))

		text, err := e.ExtractText(context.Background(), blank, false)
		if err != nil || text != "" {
			t.Errorf("without ocr flag: text=%q err=%v", text, err)
		}
		if ocr.calls != 0 {
			t.Errorf("ocr called %d times without flag", ocr.calls)
		}

		text, err = e.ExtractText(context.Background(), withText, true)
		if err != nil || text != "Typed" {
			t.Errorf("with text layer: text=%q err=%v", text, err)
		}
		if ocr.calls != 0 {
			t.Errorf("ocr called %d times for a text page", ocr.calls)
		}

		text, err = e.ExtractText(context.Background(), blank, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "scanned text" {
			t.Errorf("text = %q", text)
		}
		if ocr.calls != 1 {
			t.Errorf("ocr called %d times, want 1", ocr.calls)
		}
	})

	t.Run("ocr failure yields empty text", func(t *testing.T) {
		t.Parallel()

		blank := writePDF(t, [][]textItem{{}})
		e := New(WithOCR(&fakeOCR{text: "partial", err: errors.New("tesseract crashed")}), WithLogger(quietLogger()))

		text, err := e.ExtractText(context.Background(), blank, true)
		var ee *ExtractionError
		if !errors.As(err, &ee) || ee.Op != "ocr" {
			t.Fatalf("expected ocr ExtractionError, got %v", err)
		}
		if text != "" {
			t.Errorf("text = %q, want empty", text)
		}
	})

	t.Run("ocr flag without engine keeps blank text", func(t *testing.T) {
		t.Parallel()

		blank := writePDF(t, [][]textItem{{}})
		e := New(WithLogger(quietLogger()))
		if e.ocr != nil {
			t.Fatal("no OCR engine should be installed")
		}

		text, err := e.ExtractText(context.Background(), blank, true)
		if err != nil || text != "" {
			t.Errorf("text=%q err=%v", text, err)
		}
	})

	t.Run("unreadable file still goes through ocr", func(t *testing.T) {
		t.Parallel()

		corrupt := writeFile(t, "scan.pdf", []byte("this is not a pdf"))
		ocr := &fakeOCR{text: "recognized scan"}
		e := New(WithOCR(ocr), WithLogger(quietLogger()))

		text, err := e.ExtractText(context.Background(), corrupt, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "recognized scan" || ocr.calls != 1 {
			t.Errorf("text=%q calls=%d", text, ocr.calls)
		}

		text, err = e.ExtractText(context.Background(), corrupt, false)
		var ee *ExtractionError
		if !errors.As(err, &ee) || ee.Op != "text" || text != "" {
			t.Errorf("without ocr: text=%q err=%v", text, err)
		}
		if ocr.calls != 1 {
			t.Errorf("ocr called without flag, calls=%d", ocr.calls)
		}
	})

	t.Run("blank pages add no separators", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, [][]textItem{
			{{x: 72, y: 720, s: "First"}},
			{},
			{},
			{{x: 72, y: 720, s: "Last"}},
		})

		text, err := New(WithLogger(quietLogger())).ExtractText(context.Background(), path, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "First\n\nLast" {
			t.Errorf("text = %q", text)
		}
	})
}

// TestExtractFirstTable tests table detection.
func TestExtractFirstTable(t *testing.T) {
	t.Parallel()

	want := model.Table{
		{"Item", "Index", "Change"},
		{"Food", "182.4", "+1.2"},
		{"Fuel", "171.0", "-0.4"},
	}

	assertTable := func(t *testing.T, got, want model.Table) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("rows = %v, want %v", got, want)
		}
		for i := range want {
			if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
				t.Errorf("row %d = %q, want %q", i, got[i], want[i])
			}
		}
	}

	t.Run("first table on the page", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, [][]textItem{tablePage})
		got, err := New(WithLogger(quietLogger())).ExtractFirstTable(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertTable(t, got, want)
		if got.NumCols() != 3 {
			t.Errorf("NumCols = %d", got.NumCols())
		}
	})

	t.Run("scans past pages without a table", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, [][]textItem{
			{{x: 72, y: 720, s: "Highlights"}},
			tablePage,
			{{x: 72, y: 700, s: "A"}, {x: 200, y: 700, s: "B"}, {x: 72, y: 680, s: "C"}, {x: 200, y: 680, s: "D"}},
		})
		got, err := New(WithLogger(quietLogger())).ExtractFirstTable(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertTable(t, got, want)
	})

	t.Run("ragged rows are kept", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, [][]textItem{{
			{x: 72, y: 700, s: "Sector"}, {x: 200, y: 700, s: "2024"}, {x: 330, y: 700, s: "2025"},
			{x: 72, y: 680, s: "Mining"}, {x: 200, y: 680, s: "4.1"},
		}})
		got, err := New(WithLogger(quietLogger())).ExtractFirstTable(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertTable(t, got, model.Table{{"Sector", "2024", "2025"}, {"Mining", "4.1"}})
		if got.NumCols() != 3 {
			t.Errorf("NumCols = %d, want widest row", got.NumCols())
		}
	})

	t.Run("no table yields empty result", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, [][]textItem{{
			{x: 72, y: 720, s: "Only prose here"},
			{x: 72, y: 700, s: "A"}, {x: 200, y: 700, s: "single row"},
			{x: 72, y: 680, s: "and another paragraph"},
		}})
		got, err := New(WithLogger(quietLogger())).ExtractFirstTable(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.IsEmpty() {
			t.Errorf("expected empty table, got %v", got)
		}
	})

	t.Run("corrupt file yields empty result and warning", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "broken.pdf", []byte("%PDF-1.4\ngarbage"))
		got, err := New(WithLogger(quietLogger())).ExtractFirstTable(path)
		var ee *ExtractionError
		if !errors.As(err, &ee) || ee.Op != "table" {
			t.Fatalf("expected table ExtractionError, got %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty table, got %v", got)
		}
	})
}

// TestSplitCells tests grouping of row fragments into cells.
func TestSplitCells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		texts pdf.TextHorizontal
		want  []string
	}{
		{
			name:  "wide gaps split",
			texts: pdf.TextHorizontal{{X: 72, S: "A"}, {X: 200, S: "B"}},
			want:  []string{"A", "B"},
		},
		{
			name:  "close fragments merge",
			texts: pdf.TextHorizontal{{X: 72, S: "Consumer"}, {X: 124, S: "Price"}},
			want:  []string{"Consumer Price"},
		},
		{
			name:  "unsorted input is ordered by x",
			texts: pdf.TextHorizontal{{X: 300, S: "right"}, {X: 72, S: "left"}},
			want:  []string{"left", "right"},
		},
		{
			name:  "blank fragments are dropped",
			texts: pdf.TextHorizontal{{X: 72, S: "  "}, {X: 90, S: ""}, {X: 200, S: " x "}},
			want:  []string{"x"},
		},
		{
			name:  "reported width is used",
			texts: pdf.TextHorizontal{{X: 72, W: 120, S: "ab"}, {X: 200, S: "c"}},
			want:  []string{"ab c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := splitCells(tt.texts, DefaultCellGap)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("splitCells = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestPageCount tests page counting.
func TestPageCount(t *testing.T) {
	t.Parallel()

	t.Run("counts pages", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, [][]textItem{
			{{x: 72, y: 720, s: "one"}},
			{{x: 72, y: 720, s: "two"}},
			{{x: 72, y: 720, s: "three"}},
		})
		n, err := PageCount(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("PageCount = %d, want 3", n)
		}
	})

	t.Run("unreadable file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "broken.pdf", []byte("nope"))
		_, err := PageCount(path)
		var ee *ExtractionError
		if !errors.As(err, &ee) || ee.Op != "pages" {
			t.Errorf("expected pages ExtractionError, got %v", err)
		}
	})
}

// writeScript writes an executable shell script named name into dir.
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

// TestDetectOCR tests engine detection on PATH.
// It changes PATH and cannot run in parallel.
func TestDetectOCR(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	t.Run("missing tools", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		if ocr := DetectOCR(); ocr != nil {
			t.Errorf("expected nil, got %T", ocr)
		}
	})

	t.Run("only renderer present", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, dir, "pdftoppm", "exit 0")
		t.Setenv("PATH", dir)
		if ocr := DetectOCR(); ocr != nil {
			t.Errorf("expected nil, got %T", ocr)
		}
	})

	t.Run("both tools present", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, dir, "pdftoppm", "exit 0")
		writeScript(t, dir, "tesseract", "exit 0")
		t.Setenv("PATH", dir)

		ocr, ok := DetectOCR().(*CommandOCR)
		if !ok {
			t.Fatal("expected *CommandOCR")
		}
		if ocr.DPI != DefaultOCRDPI {
			t.Errorf("DPI = %d", ocr.DPI)
		}
		if ocr.Renderer != filepath.Join(dir, "pdftoppm") {
			t.Errorf("Renderer = %q", ocr.Renderer)
		}
	})
}

// TestCommandOCR runs the command pipeline against stand-in executables.
func TestCommandOCR(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	t.Run("pages are recognized in order", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		// $2 is the dpi and $5 the output prefix.
		writeScript(t, dir, "pdftoppm", `[ "$2" = "300" ] || exit 3
touch "$5-2.png" "$5-1.png"`)
		writeScript(t, dir, "tesseract", `echo "text of $(basename "$1")"`)

		ocr := &CommandOCR{
			Renderer:   filepath.Join(dir, "pdftoppm"),
			Recognizer: filepath.Join(dir, "tesseract"),
			DPI:        DefaultOCRDPI,
		}
		text, err := ocr.Recognize(context.Background(), "in.pdf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "text of page-1.png\ntext of page-2.png" {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("no rendered pages", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeScript(t, dir, "pdftoppm", "exit 0")
		writeScript(t, dir, "tesseract", "exit 0")

		ocr := &CommandOCR{Renderer: filepath.Join(dir, "pdftoppm"), Recognizer: filepath.Join(dir, "tesseract")}
		if _, err := ocr.Recognize(context.Background(), "in.pdf"); !errors.Is(err, ErrNoRenderedPages) {
			t.Errorf("expected ErrNoRenderedPages, got %v", err)
		}
	})

	t.Run("renderer failure", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeScript(t, dir, "pdftoppm", "echo boom >&2; exit 1")

		ocr := &CommandOCR{Renderer: filepath.Join(dir, "pdftoppm"), Recognizer: filepath.Join(dir, "tesseract")}
		_, err := ocr.Recognize(context.Background(), "in.pdf")
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Errorf("expected stderr in error, got %v", err)
		}
	})
}
