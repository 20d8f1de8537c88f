package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/pdfharvest/internal/model"
)

// fakeCrawler returns canned documents per seed.
type fakeCrawler struct {
	docs  map[string][]model.DocumentRecord
	errs  map[string]error
	delay time.Duration

	mu       sync.Mutex
	crawled  []string
	active   atomic.Int32
	maxSeen  atomic.Int32
	callback func(seed string)
}

func (f *fakeCrawler) Crawl(ctx context.Context, seed string) ([]model.DocumentRecord, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		old := f.maxSeen.Load()
		if n <= old || f.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}

	f.mu.Lock()
	f.crawled = append(f.crawled, seed)
	f.mu.Unlock()

	if f.callback != nil {
		f.callback(seed)
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	return f.docs[seed], f.errs[seed]
}

func doc(title, link string) model.DocumentRecord {
	return model.DocumentRecord{
		URL:       link,
		Title:     model.Ptr(title),
		Category:  model.Ptr("press_release"),
		FileLinks: []string{link},
	}
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(&fakeCrawler{})

		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.concurrency != 1 {
			t.Errorf("expected default concurrency 1, got %d", bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("WithConcurrency sets concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(&fakeCrawler{}, WithConcurrency(5))

		if bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
	})

	t.Run("WithConcurrency ignores invalid values", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(&fakeCrawler{}, WithConcurrency(0))

		if bp.concurrency != 1 {
			t.Errorf("expected default concurrency 1, got %d", bp.concurrency)
		}
	})

	t.Run("WithBatchLogger nil falls back to default", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(&fakeCrawler{}, WithBatchLogger(nil))

		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})
}

// TestDiscoverSeeds tests concurrent seed discovery.
func TestDiscoverSeeds(t *testing.T) {
	t.Parallel()

	t.Run("results keep seed order", func(t *testing.T) {
		t.Parallel()

		fc := &fakeCrawler{
			docs: map[string][]model.DocumentRecord{
				"https://a.example/list": {doc("A1", "https://a.example/1.pdf")},
				"https://b.example/list": {doc("B1", "https://b.example/1.pdf"), doc("B2", "https://b.example/2.pdf")},
				"https://c.example/list": {doc("C1", "https://c.example/1.pdf")},
			},
			delay: 5 * time.Millisecond,
		}
		seeds := []string{"https://a.example/list", "https://b.example/list", "https://c.example/list"}

		results, err := NewBatchProcessor(fc, WithConcurrency(3), WithBatchLogger(discardLogger())).
			DiscoverSeeds(context.Background(), seeds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		for i, seed := range seeds {
			if results[i].Seed != seed {
				t.Errorf("result %d: seed %q, want %q", i, results[i].Seed, seed)
			}
		}

		docs := Documents(results)
		if len(docs) != 4 || *docs[0].Title != "A1" || *docs[3].Title != "C1" {
			t.Errorf("unexpected flattened documents: %+v", docs)
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		fc := &fakeCrawler{delay: 20 * time.Millisecond}
		seeds := []string{"s1", "s2", "s3", "s4", "s5", "s6"}

		_, err := NewBatchProcessor(fc, WithConcurrency(2), WithBatchLogger(discardLogger())).
			DiscoverSeeds(context.Background(), seeds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := fc.maxSeen.Load(); got > 2 {
			t.Errorf("max concurrent crawls %d, want <= 2", got)
		}
		if len(fc.crawled) != len(seeds) {
			t.Errorf("crawled %d seeds, want %d", len(fc.crawled), len(seeds))
		}
	})

	t.Run("default concurrency is sequential", func(t *testing.T) {
		t.Parallel()

		fc := &fakeCrawler{delay: 5 * time.Millisecond}

		_, err := NewBatchProcessor(fc, WithBatchLogger(discardLogger())).
			DiscoverSeeds(context.Background(), []string{"s1", "s2", "s3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fc.maxSeen.Load(); got != 1 {
			t.Errorf("max concurrent crawls %d, want 1", got)
		}
	})

	t.Run("failed seed does not stop the others", func(t *testing.T) {
		t.Parallel()

		crawlErr := errors.New("bad seed")
		fc := &fakeCrawler{
			docs: map[string][]model.DocumentRecord{
				"good": {doc("Good", "https://x.example/good.pdf")},
			},
			errs: map[string]error{"bad": crawlErr},
		}

		results, err := NewBatchProcessor(fc, WithBatchLogger(discardLogger())).
			DiscoverSeeds(context.Background(), []string{"bad", "good"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(results[0].Err, crawlErr) {
			t.Errorf("expected seed error, got %v", results[0].Err)
		}
		if len(results[1].Documents) != 1 {
			t.Errorf("expected good seed documents, got %+v", results[1])
		}
	})

	t.Run("cancellation is returned", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fc := &fakeCrawler{
			delay:    time.Second,
			callback: func(string) { cancel() },
		}

		results, err := NewBatchProcessor(fc, WithBatchLogger(discardLogger())).
			DiscoverSeeds(ctx, []string{"s1", "s2"})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(results) != 2 {
			t.Errorf("expected one result slot per seed, got %d", len(results))
		}
	})

	t.Run("no seeds", func(t *testing.T) {
		t.Parallel()

		results, err := NewBatchProcessor(&fakeCrawler{}, WithBatchLogger(discardLogger())).
			DiscoverSeeds(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 0 || len(Documents(results)) != 0 {
			t.Errorf("expected empty results, got %+v", results)
		}
	})
}
