package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/pdfharvest/internal/blob"
	"github.com/nao1215/pdfharvest/internal/index"
	"github.com/nao1215/pdfharvest/internal/model"
)

// Deps are the collaborators of a harvest run.
type Deps struct {
	Store      Store
	Crawler    SeedCrawler
	Downloader Downloader
	Extractor  Extractor
	Blobs      *blob.Store

	// PageCount is optional; without it page counts stay unknown.
	PageCount PageCounter

	// Indexer is optional; the default discards text.
	Indexer index.Indexer

	Logger *slog.Logger
}

// RunOptions are the parameters of one invocation.
type RunOptions struct {
	// Seeds are the listing pages to crawl.
	Seeds []string

	// Limit bounds the file links registered per document and the files
	// processed in this run.
	Limit int

	// UseOCR enables the OCR fallback.
	UseOCR bool

	// Concurrency is the number of seeds crawled at once.
	Concurrency int
}

// Default builds the standard pipeline: schema, discover, process.
func Default(deps Deps, opts RunOptions) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewSchemaStep(deps.Store),
		NewDiscoverStep(deps.Store, deps.Crawler,
			WithLinkLimit(opts.Limit),
			WithSeedConcurrency(opts.Concurrency),
			WithDiscoverLogger(logger),
		),
		NewProcessStep(deps.Store, deps.Downloader, deps.Extractor, deps.Blobs,
			WithFileLimit(opts.Limit),
			WithOCR(opts.UseOCR),
			WithPageCounter(deps.PageCount),
			WithIndexer(deps.Indexer),
			WithProcessLogger(logger),
		),
	)
	return p
}

// Run executes one harvest invocation and returns its report. Every log
// line of the run carries the report's run ID. The error is non-nil when
// schema setup failed or ctx ended; the report is returned either way.
func Run(ctx context.Context, deps Deps, opts RunOptions) (*model.RunReport, error) {
	report := model.NewRunReport(uuid.NewString(), opts.Seeds)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	deps.Logger = logger.With("run_id", report.RunID)

	p := Default(deps, opts)
	deps.Logger.Info("run_started",
		"seeds", len(opts.Seeds),
		"limit", opts.Limit,
		"ocr", opts.UseOCR,
		"steps", p.StepNames(),
	)

	err := p.Execute(ctx, report)
	report.FinishedAt = time.Now()

	deps.Logger.Info("run_finished",
		"documents", len(report.Documents),
		"listing_pages", report.ListingPages,
		"processed", report.ProcessedCount(),
		"failed", report.FailedCount(),
		"cancelled", report.Cancelled,
		"elapsed", report.FinishedAt.Sub(report.StartedAt).String(),
	)

	return report, err
}
