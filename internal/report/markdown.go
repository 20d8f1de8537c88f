package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pdfharvest/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the status in Markdown format.
func (w *MarkdownWriter) Write(status *model.Status) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("pdfharvest Status")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Data Directory", "`" + status.DataDir + "`"},
			{"Generated", status.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	w.writeStats(md, status.Stats)
	w.writePending(md, status.PendingFiles)
	w.writeDocuments(md, status.RecentDocuments)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteRun outputs a run summary in Markdown format.
func (w *MarkdownWriter) WriteRun(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Harvest Run")
	md.PlainText("")

	rows := [][]string{{"Run ID", "`" + report.RunID + "`"}}
	for _, seed := range report.Seeds {
		rows = append(rows, []string{"Seed", seed})
	}
	rows = append(rows,
		[]string{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Status", runStatus(report)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Listing pages", strconv.Itoa(report.ListingPages)},
			{"Listing pages failed", strconv.Itoa(report.ListingPagesFailed)},
			{"Documents discovered", strconv.Itoa(len(report.Documents))},
			{"Documents stored", strconv.Itoa(report.DocumentsStored)},
			{"Files registered", strconv.Itoa(report.FilesRegistered)},
			{"Files processed", strconv.Itoa(report.ProcessedCount())},
			{"Files failed", strconv.Itoa(report.FailedCount())},
		},
	})
	md.PlainText("")

	if n := report.FailedCount(); n > 0 {
		md.Warningf("%d file(s) failed and stay pending for the next run.", n)
		md.PlainText("")
	}

	if len(report.Outcomes) > 0 {
		md.H2("Files")
		md.PlainText("")

		outcomes := make([][]string, len(report.Outcomes))
		for i, o := range report.Outcomes {
			pages := "-"
			if o.Pages != nil {
				pages = strconv.Itoa(*o.Pages)
			}
			errText := o.Error
			if errText == "" {
				errText = "-"
			}
			outcomes[i] = []string{
				strconv.FormatInt(o.FileID, 10),
				truncateString(o.FileURL, 60),
				o.Status,
				pages,
				strconv.Itoa(o.TableRows),
				truncateString(errText, 60),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"ID", "URL", "Status", "Pages", "Table Rows", "Error"},
			Rows:   outcomes,
		})
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeStats writes the counts table, a chart of file states and an alert.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, stats model.StoreStats) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Entity", "Count"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(stats.Documents)},
			{"Files", strconv.Itoa(stats.Files)},
			{"Downloaded", strconv.Itoa(stats.Downloaded)},
			{"Processed", strconv.Itoa(stats.Processed)},
			{"Pending", strconv.Itoa(stats.Pending())},
			{"Tables", strconv.Itoa(stats.Tables)},
		},
	})
	md.PlainText("")

	if stats.Files > 0 {
		w.writePieChart(md, stats)
	}

	switch {
	case stats.Files == 0:
		md.Note("No files registered yet. Run a harvest first.")
	case stats.Pending() > 0:
		md.Importantf("%d of %d file(s) are not processed yet.", stats.Pending(), stats.Files)
	default:
		md.Tip("All registered files are processed.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of file states.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats model.StoreStats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("File States"),
		piechart.WithShowData(true),
	)

	// Downloaded counts processed files too; the slices must not overlap.
	pending := stats.Files - stats.Downloaded
	downloadedOnly := stats.Downloaded - stats.Processed

	if stats.Processed > 0 {
		chart.LabelAndIntValue("Processed", uint64(stats.Processed))
	}
	if downloadedOnly > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(downloadedOnly))
	}
	if pending > 0 {
		chart.LabelAndIntValue("Pending", uint64(pending))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writePending(md *markdown.Markdown, files []model.File) {
	md.H2("Pending Files")
	md.PlainText("")

	if len(files) == 0 {
		md.PlainText("No pending files.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(files))
	for i, f := range files {
		rows[i] = []string{
			strconv.FormatInt(f.ID, 10),
			truncateString(f.URL, 70),
			f.State(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "URL", "State"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeDocuments(md *markdown.Markdown, docs []model.Document) {
	md.H2("Recent Documents")
	md.PlainText("")

	if len(docs) == 0 {
		md.PlainText("No documents.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(docs))
	for i, d := range docs {
		rows[i] = []string{
			deref(d.DatePublished),
			truncateString(deref(d.Title), 60),
			truncateString(d.URL, 70),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Date", "Title", "URL"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by pdfharvest*")
}
