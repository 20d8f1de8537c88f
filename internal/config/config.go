package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The scraper defaults mirror what the press-release site tolerates for an
// unattended nightly run: one request every half second, a handful of listing
// pages, and a small number of retries.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pdfharvest"

	// DefaultUserAgent identifies the harvester in HTTP requests.
	// Site operators can use the contact address to reach the maintainers.
	DefaultUserAgent = "pdfharvest/1.0 (+contact: example@example.com)"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt
	// for retryable statuses (429, 500, 502, 503, 504).
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the first retry wait; each further retry doubles it.
	DefaultBackoffBase = 1 * time.Second

	// DefaultRateLimit is the minimum spacing between two outbound requests.
	DefaultRateLimit = 500 * time.Millisecond

	// DefaultMaxPagesPerSeed caps how many listing pages are visited per seed.
	DefaultMaxPagesPerSeed = 5

	// DefaultConcurrency is the number of seeds crawled at once.
	// File processing is always sequential.
	DefaultConcurrency = 1

	// DefaultLimit bounds both the file links registered per document and
	// the number of unprocessed files handled per run.
	DefaultLimit = 20

	// DefaultMaxBodySize limits listing page bodies. PDF downloads are streamed
	// to disk and are not subject to this limit.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultPDFLinkPrefix scopes which anchors count as press-release PDFs.
	DefaultPDFLinkPrefix = "https://www.mospi.gov.in/sites/default/files/press_release/"

	// DefaultSeedURL is the press-release listing used when no seed is given.
	DefaultSeedURL = "https://www.mospi.gov.in/press-release"

	// DefaultCategory is the category tag stored on discovered documents.
	DefaultCategory = "press_release"
)

// Config holds all configuration options for pdfharvest.
// It is populated from defaults, the YAML config file, SCRAPER_* environment
// variables and CLI flags, in that order of precedence (later wins).
type Config struct {
	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Timeout is the timeout of a single HTTP request.
	Timeout time.Duration

	// MaxRetries is the number of retries for retryable statuses.
	MaxRetries int

	// BackoffBase is the wait before the first retry.
	BackoffBase time.Duration

	// RateLimit is the minimum interval between two requests, process-wide.
	// Zero disables spacing.
	RateLimit time.Duration

	// RespectRobots enables the robots.txt gate.
	RespectRobots bool

	// MaxPagesPerSeed caps the listing pages visited per seed.
	MaxPagesPerSeed int

	// Concurrency is the number of seeds crawled concurrently.
	Concurrency int

	// Limit bounds file links per document and files processed per run.
	Limit int

	// UseOCR enables the OCR fallback for PDFs without a text layer.
	UseOCR bool

	// MaxBodySize limits listing page bodies in bytes.
	MaxBodySize int64

	// PDFLinkPrefix is the absolute URL prefix a PDF link must start with.
	PDFLinkPrefix string

	// Category is stored on every discovered document.
	Category string

	// NextLabels are the next-page anchor texts. Empty keeps the crawler's
	// built-in labels.
	NextLabels []string

	// TableCellGap is the gap in PDF points that starts a new table cell.
	// Zero keeps the extractor default.
	TableCellGap float64

	// Seeds are the listing pages to crawl.
	Seeds []string

	// DataDir holds raw/, processed/ and the SQLite files.
	// Defaults to the XDG data directory (~/.local/share/pdfharvest on Linux).
	DataDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .pdfharvest is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-host request settings loaded from the config file.
	SiteConfigs *File

	// Verbose enables debug level logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		UserAgent:       DefaultUserAgent,
		Timeout:         DefaultTimeout,
		MaxRetries:      DefaultMaxRetries,
		BackoffBase:     DefaultBackoffBase,
		RateLimit:       DefaultRateLimit,
		MaxPagesPerSeed: DefaultMaxPagesPerSeed,
		Concurrency:     DefaultConcurrency,
		Limit:           DefaultLimit,
		MaxBodySize:     DefaultMaxBodySize,
		PDFLinkPrefix:   DefaultPDFLinkPrefix,
		Category:        DefaultCategory,
		DataDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for pdfharvest.
// On Linux: ~/.local/share/pdfharvest
// On macOS: ~/Library/Application Support/pdfharvest
// On Windows: %LOCALAPPDATA%\pdfharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pdfharvest.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// RawDir is where downloaded PDFs are stored.
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// ProcessedDir is where extracted plain text is mirrored.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed")
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.BackoffBase < 0 {
		return ErrInvalidBackoff
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxPagesPerSeed <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Limit <= 0 {
		return ErrInvalidLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.TableCellGap < 0 {
		return ErrInvalidCellGap
	}
	if c.DataDir == "" {
		return ErrNoDataDir
	}
	return nil
}
