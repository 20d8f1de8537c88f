// Package fetch provides the polite HTTP client used by the crawler and the
// downloader.
//
// A Client enforces, for every outbound request:
//   - a minimum interval between requests (golang.org/x/time/rate), shared
//     by all origins
//   - retries with exponential backoff on 429, 500, 502, 503 and 504
//   - an optional robots.txt gate evaluated once per origin
//     (github.com/temoto/robotstxt)
//
// Failures are returned as *FetchError and logged as http_get_failed.
//
// # Usage
//
//	client := fetch.New(
//	    fetch.WithUserAgent(cfg.UserAgent),
//	    fetch.WithMinInterval(cfg.RateLimit),
//	    fetch.WithRetry(cfg.MaxRetries, cfg.BackoffBase),
//	)
//	resp, err := client.Get(ctx, "https://example.gov/press-release")
package fetch
