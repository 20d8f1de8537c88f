package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/pdfharvest/internal/blob"
	"github.com/nao1215/pdfharvest/internal/crawler"
	"github.com/nao1215/pdfharvest/internal/index"
	"github.com/nao1215/pdfharvest/internal/model"
)

// Store is the part of the state store the pipeline drives.
// *database.StateDB implements it.
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertDocument(ctx context.Context, rec model.DocumentRecord) (int64, error)
	RegisterFile(ctx context.Context, documentID *int64, url string) (int64, error)
	ListUnprocessed(ctx context.Context, limit int) ([]model.File, error)
	FindFileByHash(ctx context.Context, hash string, excludeID int64) (*model.File, error)
	FindFileByPath(ctx context.Context, path string, excludeID int64) (*model.File, error)
	FileDocumentID(ctx context.Context, fileID int64) (*int64, error)
	RecordDownload(ctx context.Context, fileID int64, path, hash string) error
	UpdateFilePath(ctx context.Context, fileID int64, path string) error
	RecordFileMetadata(ctx context.Context, fileID int64, fileType *string, pages *int) error
	InsertTable(ctx context.Context, documentID, fileID int64, rows model.Table) (int64, error)
	MarkProcessed(ctx context.Context, fileID int64) error
}

// Downloader streams a URL into w. *fetch.Client implements it.
type Downloader interface {
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Extractor reads text and the first table from a PDF.
// *extract.Extractor implements it.
type Extractor interface {
	ExtractText(ctx context.Context, path string, useOCR bool) (string, error)
	ExtractFirstTable(path string) (model.Table, error)
}

// CrawlStatter is implemented by crawlers that count listing pages.
// *crawler.Spider implements it.
type CrawlStatter interface {
	Stats() crawler.SpiderStats
}

// PageCounter returns the number of pages of a file.
type PageCounter func(path string) (int, error)

// SchemaStep creates the state store schema. It is the only step whose
// failure stops a run.
type SchemaStep struct {
	store Store
}

// NewSchemaStep creates a new schema step.
func NewSchemaStep(store Store) *SchemaStep {
	return &SchemaStep{store: store}
}

// Name returns the step name.
func (s *SchemaStep) Name() string {
	return "schema"
}

// Do executes the schema step.
func (s *SchemaStep) Do(ctx context.Context, _ *model.RunReport) error {
	if err := s.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// DiscoverStep crawls the run's seeds and persists what it finds: every
// document is upserted, then up to limit of its file links are registered
// under it.
type DiscoverStep struct {
	store       Store
	crawler     SeedCrawler
	limit       int
	concurrency int
	logger      *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithLinkLimit bounds the file links registered per document.
// Zero or less registers all of them.
func WithLinkLimit(limit int) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.limit = limit
	}
}

// WithSeedConcurrency sets how many seeds are crawled at once.
func WithSeedConcurrency(n int) DiscoverStepOption {
	return func(s *DiscoverStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a new discover step.
func NewDiscoverStep(store Store, c SeedCrawler, opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		store:       store,
		crawler:     c,
		concurrency: 1,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do executes the discover step. Failed seeds and failed upserts are logged
// and skipped; only cancellation is returned.
func (s *DiscoverStep) Do(ctx context.Context, report *model.RunReport) error {
	bp := NewBatchProcessor(s.crawler,
		WithConcurrency(s.concurrency),
		WithBatchLogger(s.logger),
	)

	statter, hasStats := s.crawler.(CrawlStatter)
	var before crawler.SpiderStats
	if hasStats {
		before = statter.Stats()
	}

	results, err := bp.DiscoverSeeds(ctx, report.Seeds)
	if hasStats {
		// The crawler may outlive this run; count only this step's pages.
		after := statter.Stats()
		report.ListingPages = after.PagesVisited - before.PagesVisited
		report.ListingPagesFailed = after.PagesFailed - before.PagesFailed
	}
	if err != nil {
		return fmt.Errorf("discovery interrupted: %w", err)
	}

	// Each seed is already deduplicated; this removes overlaps between seeds.
	docs := crawler.Dedupe(Documents(results))
	report.Documents = docs
	s.logger.Info("discovered_docs",
		"count", len(docs),
		"listing_pages", report.ListingPages,
		"listing_pages_failed", report.ListingPagesFailed,
	)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		docID, err := s.store.UpsertDocument(ctx, doc)
		if err != nil {
			s.logger.Error("document_upsert_failed",
				"url", doc.URL,
				"error", err.Error(),
			)
			continue
		}
		report.DocumentsStored++

		links := doc.FileLinks
		if s.limit > 0 && len(links) > s.limit {
			links = links[:s.limit]
		}
		for _, link := range links {
			if _, err := s.store.RegisterFile(ctx, &docID, link); err != nil {
				s.logger.Error("file_register_failed",
					"file_url", link,
					"error", err.Error(),
				)
				continue
			}
			report.FilesRegistered++
		}
	}

	return nil
}

// ProcessStep downloads, extracts, and indexes up to limit unprocessed
// files, oldest first. A file that fails is logged and left unprocessed
// for the next run; the remaining files still run.
type ProcessStep struct {
	store      Store
	downloader Downloader
	extractor  Extractor
	pageCount  PageCounter
	blobs      *blob.Store
	indexer    index.Indexer
	limit      int
	useOCR     bool
	logger     *slog.Logger
}

// ProcessStepOption configures a ProcessStep.
type ProcessStepOption func(*ProcessStep)

// WithFileLimit bounds the files processed per run.
// Zero or less processes every pending file.
func WithFileLimit(limit int) ProcessStepOption {
	return func(s *ProcessStep) {
		s.limit = limit
	}
}

// WithOCR enables the OCR fallback for files without a text layer.
func WithOCR(enabled bool) ProcessStepOption {
	return func(s *ProcessStep) {
		s.useOCR = enabled
	}
}

// WithIndexer sets where extracted text is handed off.
func WithIndexer(indexer index.Indexer) ProcessStepOption {
	return func(s *ProcessStep) {
		if indexer != nil {
			s.indexer = indexer
		}
	}
}

// WithPageCounter sets the page counter.
func WithPageCounter(fn PageCounter) ProcessStepOption {
	return func(s *ProcessStep) {
		if fn != nil {
			s.pageCount = fn
		}
	}
}

// WithProcessLogger sets a custom logger for the process step.
func WithProcessLogger(logger *slog.Logger) ProcessStepOption {
	return func(s *ProcessStep) {
		s.logger = logger
	}
}

// NewProcessStep creates a new process step.
func NewProcessStep(
	store Store,
	downloader Downloader,
	extractor Extractor,
	blobs *blob.Store,
	opts ...ProcessStepOption,
) *ProcessStep {
	s := &ProcessStep{
		store:      store,
		downloader: downloader,
		extractor:  extractor,
		blobs:      blobs,
		pageCount:  func(string) (int, error) { return 0, errNoPageCounter },
		indexer:    index.Nop{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var errNoPageCounter = errors.New("no page counter configured")

// Name returns the step name.
func (s *ProcessStep) Name() string {
	return "process"
}

// Do executes the process step.
func (s *ProcessStep) Do(ctx context.Context, report *model.RunReport) error {
	files, err := s.store.ListUnprocessed(ctx, s.limit)
	if err != nil {
		return fmt.Errorf("failed to list unprocessed files: %w", err)
	}

	s.logger.Debug("pending_files", "count", len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.AddOutcome(s.processFile(ctx, f))
	}

	return nil
}

// processFile turns any failure into a failed outcome.
func (s *ProcessStep) processFile(ctx context.Context, f model.File) model.FileOutcome {
	outcome := model.FileOutcome{
		FileID:  f.ID,
		FileURL: f.URL,
		Status:  model.OutcomeProcessed,
	}

	if err := s.process(ctx, f, &outcome); err != nil {
		s.logger.Error("file_process_failed",
			"file_url", f.URL,
			"error", err.Error(),
		)
		outcome.Status = model.OutcomeFailed
		outcome.Error = err.Error()
	}

	return outcome
}

func (s *ProcessStep) process(ctx context.Context, f model.File, outcome *model.FileOutcome) error {
	path, err := s.ensureDownloaded(ctx, f)
	if err != nil {
		return err
	}
	outcome.FilePath = path

	text, err := s.extractor.ExtractText(ctx, path, s.useOCR)
	if err != nil {
		s.logger.Warn("text_extract_failed",
			"file_path", path,
			"error", err.Error(),
		)
	}

	var pages *int
	if n, err := s.pageCount(path); err != nil {
		s.logger.Warn("page_count_failed",
			"file_path", path,
			"error", err.Error(),
		)
	} else {
		pages = model.Ptr(n)
		outcome.Pages = pages
	}
	if err := s.store.RecordFileMetadata(ctx, f.ID, model.Ptr(model.FileTypePDF), pages); err != nil {
		s.logger.Warn("file_metadata_failed",
			"file_url", f.URL,
			"error", err.Error(),
		)
	}

	table, err := s.extractor.ExtractFirstTable(path)
	if err != nil {
		s.logger.Warn("table_extract_failed",
			"file_path", path,
			"error", err.Error(),
		)
	}
	if !table.IsEmpty() {
		docID, err := s.store.FileDocumentID(ctx, f.ID)
		if err != nil {
			return err
		}
		// Files registered without a document keep their table unstored.
		if docID != nil {
			if _, err := s.store.InsertTable(ctx, *docID, f.ID, table); err != nil {
				return err
			}
			outcome.TableRows = table.NumRows()
		}
	}

	source := path
	if textPath, err := s.blobs.WriteText(path, text); err != nil {
		s.logger.Error("write_text_failed",
			"file_path", path,
			"error", err.Error(),
		)
	} else {
		source = textPath
	}

	if err := s.indexer.Index(ctx, text, source); err != nil {
		return fmt.Errorf("failed to index %s: %w", source, err)
	}

	if err := s.store.MarkProcessed(ctx, f.ID); err != nil {
		return err
	}

	s.logger.Info("file_processed",
		"file_url", f.URL,
		"file_path", path,
	)
	return nil
}

// ensureDownloaded returns a local path holding the file's bytes.
// A raw file already on disk under the file's name is reused instead of
// downloaded again.
func (s *ProcessStep) ensureDownloaded(ctx context.Context, f model.File) (string, error) {
	if f.Downloaded && f.Path != nil {
		if fileExists(*f.Path) {
			return *f.Path, nil
		}

		// The data directory may have moved since the path was recorded.
		name := filepath.Base(*f.Path)
		if s.blobs.Exists(name) {
			p := s.blobs.RawPath(name)
			if err := s.store.UpdateFilePath(ctx, f.ID, p); err != nil {
				return "", err
			}
			return p, nil
		}

		s.logger.Warn("raw_file_missing",
			"file_url", f.URL,
			"file_path", *f.Path,
		)
	}

	name, err := s.rawNameFor(ctx, f)
	if err != nil {
		return "", err
	}

	var path, hash string
	if s.blobs.Exists(name) {
		path = s.blobs.RawPath(name)
		hash, err = blob.HashFile(path)
	} else {
		path, hash, err = s.blobs.Save(name, func(w io.Writer) error {
			_, err := s.downloader.Download(ctx, f.URL, w)
			return err
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}

	dup, err := s.store.FindFileByHash(ctx, hash, f.ID)
	if err != nil {
		s.logger.Warn("hash_lookup_failed",
			"file_url", f.URL,
			"error", err.Error(),
		)
	} else if dup != nil {
		s.logger.Info("duplicate_content",
			"file_url", f.URL,
			"duplicate_of", dup.URL,
		)
	}

	if err := s.store.RecordDownload(ctx, f.ID, path, hash); err != nil {
		return "", err
	}

	return path, nil
}

// rawNameFor picks the raw file name of f. When another file already
// recorded a download under the URL's last segment, f gets a name
// qualified by its URL.
func (s *ProcessStep) rawNameFor(ctx context.Context, f model.File) (string, error) {
	name := blob.FileNameForURL(f.URL)

	owner, err := s.store.FindFileByPath(ctx, s.blobs.RawPath(name), f.ID)
	if err != nil {
		return "", err
	}
	if owner == nil {
		return name, nil
	}

	qualified := blob.QualifiedName(name, f.URL)
	s.logger.Info("raw_name_taken",
		"file_url", f.URL,
		"owner_url", owner.URL,
		"file_name", qualified,
	)
	return qualified, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
