package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/pdfharvest/internal/blob"
	"github.com/nao1215/pdfharvest/internal/config"
	"github.com/nao1215/pdfharvest/internal/crawler"
	"github.com/nao1215/pdfharvest/internal/database"
	"github.com/nao1215/pdfharvest/internal/extract"
	"github.com/nao1215/pdfharvest/internal/index"
	"github.com/nao1215/pdfharvest/internal/model"
	"github.com/nao1215/pdfharvest/internal/pipeline"
	"github.com/nao1215/pdfharvest/internal/report"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [seed-url...]",
		Short: "Crawl seeds, download new PDFs and extract their content",
		Long: `Run executes one harvest:

1. Crawl every seed listing page (following "Next" links) and collect PDF links
2. Store the discovered documents and register their files
3. Download, extract and index up to --limit unprocessed files

Files that fail stay pending and are retried by the next run. Without a seed
argument the seeds of the config file are used, or the default press-release
listing.

Events are written to stderr as JSON lines; the run summary goes to stdout.

Examples:
  # Harvest the default listing
  pdfharvest run

  # Harvest a specific listing, processing at most 5 files
  pdfharvest run --limit 5 https://www.mospi.gov.in/press-release

  # Enable the OCR fallback and obey robots.txt
  pdfharvest run --ocr --respect-robots

  # Write a Markdown summary to a file
  pdfharvest run -m -o reports/run.md`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().IntP("limit", "l", config.DefaultLimit,
		"Maximum links registered per document and files processed in this run")
	cmd.Flags().Bool("ocr", false,
		"Use OCR (pdftoppm + tesseract) for PDFs without a text layer")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of seeds crawled concurrently")

	addScraperFlags(cmd)
	addStoreFlags(cmd)
	addOutputFlags(cmd)

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	out, err := getOutputOptions(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runHarvest(ctx, cfg, out, cmd.OutOrStdout(), logger)
}

// runHarvest wires the components from cfg, runs the pipeline and writes
// the run summary. The summary is written even when the run was cut short.
func runHarvest(ctx context.Context, cfg *config.Config, out outputOptions, stdout io.Writer, logger *slog.Logger) error {
	blobs, err := blob.NewStore(cfg.RawDir(), cfg.ProcessedDir())
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer db.Close()

	idx, err := index.Open(cfg.DataDir, index.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer idx.Close()

	client := newFetchClient(cfg, logger)

	deps := pipeline.Deps{
		Store:      db,
		Crawler:    newSpider(cfg, client, logger),
		Downloader: client,
		Extractor:  newExtractor(cfg, logger),
		Blobs:      blobs,
		PageCount:  extract.PageCount,
		Indexer:    idx,
		Logger:     logger,
	}

	runReport, runErr := pipeline.Run(ctx, deps, pipeline.RunOptions{
		Seeds:       cfg.Seeds,
		Limit:       cfg.Limit,
		UseOCR:      cfg.UseOCR,
		Concurrency: cfg.Concurrency,
	})

	if err := writeRunReport(out, stdout, runReport); err != nil {
		logger.Error("report_failed", "error", err)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("harvest interrupted: %w", runErr)
		}
		return fmt.Errorf("harvest failed: %w", runErr)
	}
	return nil
}

// newSpider builds the listing crawler from cfg.
func newSpider(cfg *config.Config, fetcher crawler.Fetcher, logger *slog.Logger) *crawler.Spider {
	opts := []crawler.SpiderOption{
		crawler.WithMaxPages(cfg.MaxPagesPerSeed),
		crawler.WithPDFLinkPrefix(cfg.PDFLinkPrefix),
		crawler.WithCategory(cfg.Category),
		crawler.WithLogger(logger),
	}
	if len(cfg.NextLabels) > 0 {
		opts = append(opts, crawler.WithNextLabels(cfg.NextLabels))
	}
	return crawler.NewSpider(fetcher, opts...)
}

// newExtractor builds the PDF extractor, attaching the OCR engine when OCR
// is requested and the tools are installed.
func newExtractor(cfg *config.Config, logger *slog.Logger) *extract.Extractor {
	opts := []extract.Option{
		extract.WithLogger(logger),
		extract.WithCellGap(cfg.TableCellGap),
	}
	if cfg.UseOCR {
		if ocr := extract.DetectOCR(); ocr != nil {
			opts = append(opts, extract.WithOCR(ocr))
		} else {
			logger.Warn("ocr_unavailable", "reason", "pdftoppm or tesseract not found on PATH")
		}
	}
	return extract.New(opts...)
}

// writeRunReport renders the run summary in the selected format.
func writeRunReport(out outputOptions, stdout io.Writer, runReport *model.RunReport) error {
	if runReport == nil {
		return nil
	}
	return withReportWriter(out, stdout, func(w report.Writer) error {
		_, err := w.WriteRun(runReport)
		return err
	})
}
