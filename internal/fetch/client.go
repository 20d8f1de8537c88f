package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// retryableStatus lists the statuses worth another attempt.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Response is a fully read HTTP response.
type Response struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the final HTTP status (always 2xx).
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the response body, truncated to the configured max size.
	Body []byte
}

// HeaderFunc returns extra headers for requests to host.
type HeaderFunc func(host string) http.Header

// Client issues rate-limited, retried and optionally robots-gated GET requests.
// One Client owns one connection pool, one request clock and one robots
// cache; create it once per process and pass it to the components that need it.
// A Client is safe for concurrent use.
type Client struct {
	userAgent     string
	timeout       time.Duration
	maxRetries    int
	backoffBase   time.Duration
	interval      time.Duration
	maxBodySize   int64
	respectRobots bool
	headers       HeaderFunc
	logger        *slog.Logger

	// httpClient is created on first use.
	httpClient *http.Client
	once       sync.Once

	// limiter spaces all outbound requests of this Client, across origins.
	limiter *rate.Limiter

	// robots caches the allow decision per origin for the Client lifetime.
	robots   map[string]bool
	robotsMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout bounds connecting, waiting for response headers and each gap
// between two reads of the body. A slow body that keeps delivering bytes is
// not cut off.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetry sets the retry count and the first backoff wait.
// Each further retry doubles the wait.
func WithRetry(maxRetries int, backoffBase time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoffBase = backoffBase
	}
}

// WithMinInterval sets the minimum spacing between two requests.
// Zero disables spacing.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		c.interval = d
	}
}

// WithMaxBodySize limits the bytes read by Get. Zero means no limit.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		c.maxBodySize = n
	}
}

// WithRespectRobots enables the robots.txt gate.
func WithRespectRobots(enabled bool) Option {
	return func(c *Client) {
		c.respectRobots = enabled
	}
}

// WithHeaders sets a per-host header provider (cookies, auth headers).
func WithHeaders(fn HeaderFunc) Option {
	return func(c *Client) {
		c.headers = fn
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client. Defaults: 30s timeout, 3 retries, 1s backoff,
// 500ms spacing, 10MB body limit, robots gate off.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent:   "pdfharvest/1.0",
		timeout:     30 * time.Second,
		maxRetries:  3,
		backoffBase: time.Second,
		interval:    500 * time.Millisecond,
		maxBodySize: 10 * 1024 * 1024,
		robots:      make(map[string]bool),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	limit := rate.Inf
	if c.interval > 0 {
		limit = rate.Every(c.interval)
	}
	c.limiter = rate.NewLimiter(limit, 1)

	return c
}

// client returns the shared *http.Client, creating it on first use.
func (c *Client) client() *http.Client {
	c.once.Do(func() {
		dialer := &net.Dialer{Timeout: c.timeout, KeepAlive: 30 * time.Second}
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   c.timeout,
				ResponseHeaderTimeout: c.timeout,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   4,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	})
	return c.httpClient
}

// Get fetches rawURL and reads the whole body.
// Failures are logged as http_get_failed and returned as *FetchError.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		c.logFailure(rawURL, err)
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if c.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, c.maxBodySize)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		ferr := &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
		c.logFailure(rawURL, ferr)
		return nil, ferr
	}

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Rewinder is a download destination that can discard what was written so
// far. Download retries a broken body transfer only into a Rewinder.
type Rewinder interface {
	io.Writer
	Rewind() error
}

// Download streams the body of rawURL into w and returns the bytes written.
// No size limit applies. A transfer that breaks off mid-body is retried with
// the usual backoff when w is a Rewinder.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.do(ctx, rawURL)
		if err != nil {
			c.logFailure(rawURL, err)
			return 0, err
		}

		n, err := io.Copy(w, resp.Body)
		_ = resp.Body.Close() //nolint:errcheck // body fully consumed or abandoned
		if err == nil {
			return n, nil
		}

		ferr := &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
		rw, ok := w.(Rewinder)
		if !ok || ctx.Err() != nil || attempt >= c.maxRetries {
			c.logFailure(rawURL, ferr)
			return n, ferr
		}
		if rerr := rw.Rewind(); rerr != nil {
			c.logFailure(rawURL, ferr)
			return n, ferr
		}

		wait := c.backoffBase * time.Duration(1<<attempt)
		c.logger.Debug("download_retry",
			"url", rawURL,
			"attempt", attempt+1,
			"bytes", n,
			"wait", wait.String(),
			"error", err.Error(),
		)
		if err := sleep(ctx, wait); err != nil {
			return 0, &FetchError{URL: rawURL, Err: err}
		}
	}
}

// do performs the gated, spaced and retried request.
// On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &FetchError{URL: rawURL, Err: ErrUnsupportedScheme}
	}

	if c.respectRobots && !c.allowed(ctx, u) {
		return nil, &FetchError{URL: rawURL, Err: ErrRobotsDisallowed}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}

		resp, err := c.send(ctx, u)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, &FetchError{URL: rawURL, Err: err}
			}
			lastErr = &FetchError{URL: rawURL, Err: err}
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		default:
			drain(resp)
			lastErr = &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
			if !retryableStatus[resp.StatusCode] {
				return nil, lastErr
			}
		}

		if attempt >= c.maxRetries {
			return nil, lastErr
		}

		wait := c.backoffBase * time.Duration(1<<attempt)
		c.logger.Debug("http_retry",
			"url", rawURL,
			"attempt", attempt+1,
			"wait", wait.String(),
			"error", lastErr,
		)
		if err := sleep(ctx, wait); err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}
	}
}

// send issues a single GET request. The returned body fails with
// ErrReadTimeout once no byte has arrived for the client timeout.
func (c *Client) send(ctx context.Context, u *url.URL) (*http.Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
	if c.headers != nil {
		for k, values := range c.headers(u.Hostname()) {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
	}

	resp, err := c.client().Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = newIdleBody(resp.Body, c.timeout, cancel)
	return resp, nil
}

// logFailure records a failed request before the error propagates.
func (c *Client) logFailure(rawURL string, err error) {
	var ferr *FetchError
	status := 0
	if errors.As(err, &ferr) {
		status = ferr.StatusCode
	}
	c.logger.Error("http_get_failed",
		"url", rawURL,
		"status", status,
		"error", err.Error(),
	)
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
