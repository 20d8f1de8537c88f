package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/nao1215/pdfharvest/internal/fetch"
	"github.com/nao1215/pdfharvest/internal/model"
)

// Default crawl settings.
const (
	// DefaultMaxPages caps the listing pages visited per seed.
	DefaultMaxPages = 5

	// DefaultPDFLinkPrefix scopes PDF anchors to the press-release folder.
	DefaultPDFLinkPrefix = "https://www.mospi.gov.in/sites/default/files/press_release/"

	// DefaultCategory is stored on every discovered document.
	DefaultCategory = "press_release"
)

// DefaultNextLabels are the anchor texts recognised as "next page".
var DefaultNextLabels = []string{"next", "next ›", "›", "older", ">>"}

// Fetcher fetches a listing page. *fetch.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*fetch.Response, error)
}

// Spider walks listing pages breadth-first from a seed, following at most
// one next-page link per page, and collects PDF document records.
type Spider struct {
	// fetcher performs the HTTP requests.
	fetcher Fetcher

	// maxPages limits the listing pages visited per seed.
	// Pages whose fetch failed still count.
	maxPages int

	// pdfPattern selects PDF anchors by absolute URL.
	pdfPattern *regexp.Regexp

	// nextLabels are the accepted next-page anchor texts.
	nextLabels []string

	// category is the tag stored on every record.
	category string

	logger *slog.Logger

	// mutex protects the counters below; a Spider may crawl several seeds
	// concurrently.
	mutex        sync.Mutex
	pagesVisited int
	pagesFailed  int
	docsFound    int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the maximum number of listing pages per seed.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		if maxPages > 0 {
			s.maxPages = maxPages
		}
	}
}

// WithPDFLinkPrefix scopes PDF anchors to absolute URLs starting with prefix
// and ending in .pdf (case-insensitive).
func WithPDFLinkPrefix(prefix string) SpiderOption {
	return func(s *Spider) {
		s.pdfPattern = pdfPatternFor(prefix)
	}
}

// WithNextLabels replaces the next-page anchor texts.
func WithNextLabels(labels []string) SpiderOption {
	return func(s *Spider) {
		s.nextLabels = labels
	}
}

// WithCategory sets the category tag of discovered documents.
func WithCategory(category string) SpiderOption {
	return func(s *Spider) {
		s.category = category
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a new Spider that fetches pages through fetcher.
func NewSpider(fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:    fetcher,
		maxPages:   DefaultMaxPages,
		pdfPattern: pdfPatternFor(DefaultPDFLinkPrefix),
		nextLabels: DefaultNextLabels,
		category:   DefaultCategory,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// pdfPatternFor builds the case-insensitive PDF link pattern for prefix.
// The path must end in .pdf; a query string may follow it.
func pdfPatternFor(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `[^?#]*\.pdf(?:\?.*)?$`)
}

// Crawl visits listing pages from seedURL and returns the discovered
// documents, deduplicated by (title, first file link) in first-seen order.
// A page that cannot be fetched is logged and skipped. The only error
// returned is the context's, together with the documents found so far.
func (s *Spider) Crawl(ctx context.Context, seedURL string) ([]model.DocumentRecord, error) {
	docs := make([]model.DocumentRecord, 0)

	err := s.walk(ctx, seedURL, func(result *ParseResult) {
		docs = append(docs, result.Documents...)
	})

	docs = Dedupe(docs)
	s.mutex.Lock()
	s.docsFound += len(docs)
	s.mutex.Unlock()

	return docs, err
}

// DiscoverPDFLinks walks the same pages as Crawl and returns only the unique
// PDF URLs, in first-seen order.
func (s *Spider) DiscoverPDFLinks(ctx context.Context, seedURL string) ([]string, error) {
	links := make([]string, 0)
	seen := make(map[string]bool)

	err := s.walk(ctx, seedURL, func(result *ParseResult) {
		for _, d := range result.Documents {
			for _, l := range d.FileLinks {
				if !seen[l] {
					seen[l] = true
					links = append(links, l)
				}
			}
		}
	})

	return links, err
}

// walk runs the frontier loop and hands each parsed page to visit.
func (s *Spider) walk(ctx context.Context, seedURL string, visit func(*ParseResult)) error {
	start, err := url.Parse(seedURL)
	if err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}
	if start.Scheme != "http" && start.Scheme != "https" {
		return fmt.Errorf("invalid seed URL %q: scheme must be http or https", seedURL)
	}

	queue := []string{start.String()}
	seen := make(map[string]bool)

	for len(queue) > 0 && len(seen) < s.maxPages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pageURL := queue[0]
		queue = queue[1:]

		key := normalizeURL(pageURL)
		if seen[key] {
			continue
		}
		seen[key] = true

		result, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			s.logger.Warn("listing_fetch_failed", "url", pageURL, "error", err.Error())
			s.mutex.Lock()
			s.pagesFailed++
			s.mutex.Unlock()
			continue
		}

		s.mutex.Lock()
		s.pagesVisited++
		s.mutex.Unlock()

		s.logger.Debug("listing_page_parsed",
			"url", pageURL,
			"documents", len(result.Documents),
			"next", result.NextURL,
		)

		visit(result)

		if result.NextURL != "" && !seen[normalizeURL(result.NextURL)] {
			queue = append(queue, result.NextURL)
		}
	}

	return nil
}

// fetchPage fetches and parses a single listing page.
func (s *Spider) fetchPage(ctx context.Context, pageURL string) (*ParseResult, error) {
	resp, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	parser, err := NewParser(pageURL, s.pdfPattern, s.nextLabels, s.category)
	if err != nil {
		return nil, err
	}

	return parser.Parse(bytes.NewReader(resp.Body))
}

// Dedupe removes records sharing (title, first file link), keeping the
// first occurrence and the original order.
func Dedupe(docs []model.DocumentRecord) []model.DocumentRecord {
	type key struct{ title, link string }

	seen := make(map[key]bool, len(docs))
	out := make([]model.DocumentRecord, 0, len(docs))
	for _, d := range docs {
		k := key{title: model.Deref(d.Title), link: d.FirstFileLink()}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}

// normalizeURL normalizes a URL for visited-page deduplication.
// The fragment is dropped, scheme and host are lowercased and an empty path
// becomes "/".
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// Stats returns cumulative crawl statistics.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SpiderStats{
		PagesVisited:   s.pagesVisited,
		PagesFailed:    s.pagesFailed,
		DocumentsFound: s.docsFound,
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesVisited is the number of listing pages fetched and parsed.
	PagesVisited int

	// PagesFailed is the number of listing pages whose fetch failed.
	PagesFailed int

	// DocumentsFound is the number of deduplicated records returned by Crawl.
	DocumentsFound int
}
