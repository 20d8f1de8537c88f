package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/pdfharvest/internal/model"
	"golang.org/x/sync/errgroup"
)

// SeedCrawler crawls one listing seed. *crawler.Spider implements it.
type SeedCrawler interface {
	Crawl(ctx context.Context, seedURL string) ([]model.DocumentRecord, error)
}

// SeedResult is the outcome of crawling one seed.
type SeedResult struct {
	Seed      string
	Documents []model.DocumentRecord
	Err       error
}

// BatchProcessor crawls several listing seeds concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
// Only the crawl runs concurrently; callers persist the results afterwards.
type BatchProcessor struct {
	crawler SeedCrawler

	// concurrency is the maximum number of seeds crawled at once.
	concurrency int

	logger *slog.Logger

	// results is indexed like the seeds slice.
	results []SeedResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 1, which crawls seeds one after another.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(crawler SeedCrawler, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		crawler:     crawler,
		concurrency: 1,
		results:     make([]SeedResult, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// DiscoverSeeds crawls every seed and returns one result per seed, in seed
// order. A failed seed is recorded in its result and does not stop the
// others. The returned error is non-nil only when ctx ended.
func (bp *BatchProcessor) DiscoverSeeds(ctx context.Context, seeds []string) ([]SeedResult, error) {
	bp.logger.Debug("discovery_started",
		"seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]SeedResult, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				bp.store(i, SeedResult{Seed: seed, Err: gctx.Err()})
				return gctx.Err()
			default:
			}

			docs, err := bp.crawler.Crawl(gctx, seed)
			bp.store(i, SeedResult{Seed: seed, Documents: docs, Err: err})

			if err != nil {
				bp.logger.Warn("seed_crawl_failed",
					"url", seed,
					"error", err.Error(),
				)
				// The error stays in the result so the other seeds keep going.
				return nil
			}

			bp.logger.Debug("seed_crawled",
				"url", seed,
				"count", len(docs),
			)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Debug("discovery_finished",
		"seeds", len(seeds),
		"elapsed", time.Since(startTime).String(),
	)

	return bp.results, err
}

func (bp *BatchProcessor) store(i int, r SeedResult) {
	bp.mu.Lock()
	bp.results[i] = r
	bp.mu.Unlock()
}

// Documents flattens results into one list in seed order, skipping nothing:
// a seed cancelled mid-crawl still contributes what it found.
func Documents(results []SeedResult) []model.DocumentRecord {
	docs := make([]model.DocumentRecord, 0)
	for _, r := range results {
		docs = append(docs, r.Documents...)
	}
	return docs
}
