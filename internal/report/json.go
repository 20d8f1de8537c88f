package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/pdfharvest/internal/model"
)

// JSONWriter encodes statuses and run reports as one JSON document each,
// followed by a newline. URLs are written without HTML escaping.
type JSONWriter struct {
	baseWriter

	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent, each line starting with prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a compact JSONWriter on output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes status.
func (w *JSONWriter) Write(status *model.Status) (int, error) {
	return w.encode(status)
}

// WriteRun encodes report.
func (w *JSONWriter) WriteRun(report *model.RunReport) (int, error) {
	return w.encode(report)
}

// encode buffers the document so a marshal error writes nothing.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// Envelope tags a document with the pdfharvest version that produced it.
// Exactly one of Status and Run is set.
type Envelope struct {
	Version string           `json:"version"`
	Status  *model.Status    `json:"status,omitempty"`
	Run     *model.RunReport `json:"run,omitempty"`
}

// VersionedJSONWriter writes every document inside an Envelope.
type VersionedJSONWriter struct {
	*JSONWriter

	version string
}

// NewVersionedJSONWriter creates a VersionedJSONWriter stamping version.
func NewVersionedJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *VersionedJSONWriter {
	return &VersionedJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write encodes status inside an envelope.
func (w *VersionedJSONWriter) Write(status *model.Status) (int, error) {
	return w.encode(Envelope{Version: w.version, Status: status})
}

// WriteRun encodes report inside an envelope.
func (w *VersionedJSONWriter) WriteRun(report *model.RunReport) (int, error) {
	return w.encode(Envelope{Version: w.version, Run: report})
}
