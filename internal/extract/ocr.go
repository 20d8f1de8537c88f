package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// DefaultOCRDPI is the render resolution used for recognition.
const DefaultOCRDPI = 300

// ErrNoRenderedPages is returned when the renderer produced no images.
var ErrNoRenderedPages = errors.New("renderer produced no page images")

// OCR recognizes the text of a PDF from its rendered pages.
type OCR interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// CommandOCR renders pages with pdftoppm and recognizes each page with
// tesseract. Page texts are joined with a newline.
type CommandOCR struct {
	// Renderer is the pdftoppm executable.
	Renderer string

	// Recognizer is the tesseract executable.
	Recognizer string

	// DPI is the render resolution.
	DPI int
}

// DetectOCR returns a CommandOCR when pdftoppm and tesseract are both on
// PATH, or nil.
func DetectOCR() OCR {
	renderer, err := exec.LookPath("pdftoppm")
	if err != nil {
		return nil
	}
	recognizer, err := exec.LookPath("tesseract")
	if err != nil {
		return nil
	}
	return &CommandOCR{Renderer: renderer, Recognizer: recognizer, DPI: DefaultOCRDPI}
}

// Recognize renders every page into a temporary directory and runs the
// recognizer on each image in page order.
func (c *CommandOCR) Recognize(ctx context.Context, path string) (string, error) {
	dir, err := os.MkdirTemp("", "pdfharvest-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	dpi := c.DPI
	if dpi <= 0 {
		dpi = DefaultOCRDPI
	}

	prefix := filepath.Join(dir, "page")
	if _, err := run(ctx, c.Renderer, "-r", strconv.Itoa(dpi), "-png", path, prefix); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", ErrNoRenderedPages
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	slices.Sort(images)

	texts := make([]string, 0, len(images))
	for _, img := range images {
		out, err := run(ctx, c.Recognizer, img, "stdout")
		if err != nil {
			return "", fmt.Errorf("recognize %s: %w", filepath.Base(img), err)
		}
		texts = append(texts, strings.TrimSpace(out))
	}

	return strings.Join(texts, "\n"), nil
}

// run executes name with args and returns its standard output.
func run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
