package report

import (
	"io"

	"github.com/nao1215/pdfharvest/internal/model"
)

// Writer renders harvest results. Both methods return the number of bytes
// written.
type Writer interface {
	// Write renders a snapshot of the state store.
	Write(status *model.Status) (int, error)

	// WriteRun renders the summary of one pipeline run.
	WriteRun(report *model.RunReport) (int, error)
}

// MultiWriter fans a report out to several Writers, in order. The first
// failing Writer stops the fan-out.
type MultiWriter []Writer

// NewMultiWriter creates a MultiWriter over writers.
func NewMultiWriter(writers ...Writer) MultiWriter {
	return MultiWriter(writers)
}

// Write renders status with every Writer.
func (m MultiWriter) Write(status *model.Status) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(status) })
}

// WriteRun renders report with every Writer.
func (m MultiWriter) WriteRun(report *model.RunReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteRun(report) })
}

func (m MultiWriter) each(write func(Writer) (int, error)) (int, error) {
	total := 0
	for _, w := range m {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the destination shared by the concrete writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// runStatus describes how a run ended.
func runStatus(report *model.RunReport) string {
	switch {
	case report.Cancelled:
		return "Cancelled (partial results)"
	case report.ErrorMessage != "":
		return "Error - " + report.ErrorMessage
	case report.FailedCount() > 0:
		return "Completed with failures"
	default:
		return "Complete"
	}
}

// deref returns the pointed-to string or "-" when absent.
func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
