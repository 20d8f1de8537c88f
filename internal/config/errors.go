package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can match them with errors.Is.
var (
	// ErrNoSeed is returned when no listing page URL is configured.
	ErrNoSeed = errors.New("no seed specified: provide a listing page URL or set seeds in the config file")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidBackoff is returned when the backoff base is negative.
	ErrInvalidBackoff = errors.New("invalid backoff base: must be non-negative")

	// ErrInvalidRateLimit is returned when the request interval is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxPages is returned when the listing page cap is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages per seed: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency level is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidLimit is returned when the per-run file limit is not positive.
	ErrInvalidLimit = errors.New("invalid limit: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidCellGap is returned when the table cell gap is negative.
	ErrInvalidCellGap = errors.New("invalid table cell gap: must be non-negative")

	// ErrNoDataDir is returned when the data directory is empty.
	ErrNoDataDir = errors.New("no data directory specified")

	// ErrInvalidEnvValue is returned when a SCRAPER_* variable cannot be parsed.
	ErrInvalidEnvValue = errors.New("invalid environment value")
)
