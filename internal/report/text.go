package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/pdfharvest/internal/model"
)

const textRuleWidth = 70

// TextWriter outputs human-readable text reports for terminal display.
// It uses plain ASCII formatting so output can be piped to files.
type TextWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose adds file paths and hashes.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the status in human-readable format.
func (w *TextWriter) Write(status *model.Status) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "PDFHARVEST STATUS")
	fmt.Fprintf(&sb, "Data Directory: %s\n", status.DataDir)
	fmt.Fprintf(&sb, "Generated:      %s\n\n", status.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	w.writeStats(&sb, status.Stats)
	w.writePending(&sb, status.PendingFiles)
	w.writeDocuments(&sb, status.RecentDocuments)

	sb.WriteString(strings.Repeat("=", textRuleWidth))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteRun outputs a run summary in human-readable format.
func (w *TextWriter) WriteRun(report *model.RunReport) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "HARVEST RUN")
	fmt.Fprintf(&sb, "Run ID:     %s\n", report.RunID)
	for _, seed := range report.Seeds {
		fmt.Fprintf(&sb, "Seed:       %s\n", seed)
	}
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "Duration:   %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(&sb, "Status:     %s\n\n", runStatus(report))

	writeSection(&sb, "SUMMARY")
	fmt.Fprintf(&sb, "  Listing pages:        %d", report.ListingPages)
	if report.ListingPagesFailed > 0 {
		fmt.Fprintf(&sb, " (%d failed)", report.ListingPagesFailed)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Documents discovered: %d\n", len(report.Documents))
	fmt.Fprintf(&sb, "  Documents stored:     %d\n", report.DocumentsStored)
	fmt.Fprintf(&sb, "  Files registered:     %d\n", report.FilesRegistered)
	fmt.Fprintf(&sb, "  Files processed:      %d\n", report.ProcessedCount())
	fmt.Fprintf(&sb, "  Files failed:         %d\n\n", report.FailedCount())

	if len(report.Outcomes) > 0 || w.showEmpty {
		writeSection(&sb, "FILES")
		if len(report.Outcomes) == 0 {
			sb.WriteString("  No files handled\n")
		}
		for _, o := range report.Outcomes {
			marker := "[+]"
			if o.Status == model.OutcomeFailed {
				marker = "[!]"
			}
			fmt.Fprintf(&sb, "  %s %s\n", marker, o.FileURL)
			if o.Error != "" {
				fmt.Fprintf(&sb, "      Error: %s\n", o.Error)
			}
			if w.verbose && o.FilePath != "" {
				fmt.Fprintf(&sb, "      Path:  %s\n", o.FilePath)
			}
			if o.TableRows > 0 {
				fmt.Fprintf(&sb, "      Table: %d rows\n", o.TableRows)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", textRuleWidth))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *TextWriter) writeStats(sb *strings.Builder, stats model.StoreStats) {
	writeSection(sb, "SUMMARY")
	fmt.Fprintf(sb, "  Documents:  %d\n", stats.Documents)
	fmt.Fprintf(sb, "  Files:      %d\n", stats.Files)
	fmt.Fprintf(sb, "  Downloaded: %d\n", stats.Downloaded)
	fmt.Fprintf(sb, "  Processed:  %d\n", stats.Processed)
	fmt.Fprintf(sb, "  Pending:    %d\n", stats.Pending())
	fmt.Fprintf(sb, "  Tables:     %d\n\n", stats.Tables)
}

func (w *TextWriter) writePending(sb *strings.Builder, files []model.File) {
	if len(files) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "PENDING FILES")
	if len(files) == 0 {
		sb.WriteString("  No pending files\n\n")
		return
	}

	for _, f := range files {
		fmt.Fprintf(sb, "  [%s] #%d %s\n", f.State(), f.ID, f.URL)
		if w.verbose {
			if f.Path != nil {
				fmt.Fprintf(sb, "      Path: %s\n", *f.Path)
			}
			if f.Hash != nil {
				fmt.Fprintf(sb, "      Hash: %s\n", *f.Hash)
			}
		}
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeDocuments(sb *strings.Builder, docs []model.Document) {
	if len(docs) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "RECENT DOCUMENTS")
	if len(docs) == 0 {
		sb.WriteString("  No documents\n\n")
		return
	}

	for _, d := range docs {
		fmt.Fprintf(sb, "  %s  %s\n", deref(d.DatePublished), deref(d.Title))
		fmt.Fprintf(sb, "              %s\n", d.URL)
	}
	sb.WriteString("\n")
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", textRuleWidth))
	sb.WriteString("\n")
	pad := max((textRuleWidth-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", textRuleWidth))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", textRuleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", textRuleWidth))
	sb.WriteString("\n\n")
}
