// Package web provides the HTTP fetcher used by the fan-out stage.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fixed request headers. Some sites refuse clients that do not look like a browser.
const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	AcceptLanguage = "en-US,en;q=0.9"
	Accept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"
)

// Default configuration values.
const (
	DefaultMaxBytes    = domain.DefaultMaxBytes
	DefaultPerHostRate = 2.0

	// maxBackoff caps how long a Retry-After header can pause a host.
	maxBackoff = time.Minute
)

// Config holds configuration for the web fetcher.
type Config struct {
	// MaxBytes caps the body read per page (default: 2 MiB).
	MaxBytes int64

	// PerHostRate is the request rate allowed per host, in requests per
	// second (default: 2). Negative disables per-host limiting.
	PerHostRate float64

	// Transport overrides the HTTP transport. Used by tests.
	Transport http.RoundTripper
}

// Fetcher retrieves pages over HTTP with fixed browser-like headers.
// It is safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	rate     float64

	mu    sync.Mutex
	hosts map[string]*hostLimiter
}

// NewFetcher creates a web fetcher.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.PerHostRate == 0 {
		cfg.PerHostRate = DefaultPerHostRate
	}

	client := &http.Client{}
	if cfg.Transport != nil {
		client.Transport = cfg.Transport
	}

	return &Fetcher{
		client:   client,
		maxBytes: cfg.MaxBytes,
		rate:     cfg.PerHostRate,
		hosts:    make(map[string]*hostLimiter),
	}
}

// NewFetcherFromSettings creates a fetcher from application settings.
func NewFetcherFromSettings(s domain.FetchSettings) *Fetcher {
	return NewFetcher(Config{
		MaxBytes:    s.MaxBytes,
		PerHostRate: s.PerHostRate,
	})
}

// Fetch retrieves rawURL within timeout. Failures are returned as values.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) domain.FetchOutcome {
	start := time.Now()
	outcome := domain.FetchOutcome{URL: rawURL}
	fail := func(cause domain.FailureCause, status int, err error) domain.FetchOutcome {
		outcome.Failure = &domain.FetchFailure{URL: rawURL, Cause: cause, StatusCode: status, Err: err}
		outcome.Duration = time.Since(start)
		return outcome
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fail(domain.FailureConnection, 0, fmt.Errorf("parse url: %w", err))
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fail(domain.FailureConnection, 0, fmt.Errorf("unsupported url %q", rawURL))
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	limiter := f.limiter(parsed.Host)
	if err := limiter.Wait(ctx); err != nil {
		// The limiter only fails when the deadline or cancellation wins,
		// sometimes before ctx itself reports it.
		return fail(domain.FailureTimeout, 0, fmt.Errorf("wait for %s: %w", parsed.Host, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fail(domain.FailureConnection, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", AcceptLanguage)
	req.Header.Set("Accept", Accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return fail(classify(ctx, err), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusTooManyRequests {
			if wait, ok := parseRetryAfter(resp.Header.Get(HeaderRetryAfter), time.Now()); ok {
				limiter.Backoff(wait)
				logger.Debug("fetch: %s asked to back off for %s", parsed.Host, wait)
			}
		}
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fail(domain.FailureHTTP, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return fail(classify(ctx, err), 0, fmt.Errorf("read body: %w", err))
	}

	outcome.Content = string(body)
	outcome.Duration = time.Since(start)
	return outcome
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func (f *Fetcher) limiter(host string) *hostLimiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.hosts[host]
	if !ok {
		l = newHostLimiter(f.rate)
		f.hosts[host] = l
	}
	return l
}

// classify maps a transport error to a failure cause.
func classify(ctx context.Context, err error) domain.FailureCause {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return domain.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.FailureTimeout
	}
	return domain.FailureConnection
}

// parseRetryAfter reads a Retry-After value given in seconds or as an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	var wait time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		wait = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		wait = at.Sub(now)
	} else {
		return 0, false
	}
	if wait <= 0 {
		return 0, false
	}
	return min(wait, maxBackoff), true
}

// hostLimiter throttles requests to one host.
// A token bucket paces requests and Backoff pauses the host entirely.
type hostLimiter struct {
	bucket *rate.Limiter

	mu    sync.Mutex
	until time.Time
}

func newHostLimiter(perSecond float64) *hostLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &hostLimiter{bucket: rate.NewLimiter(limit, 1)}
}

// Wait blocks until a request to the host is allowed.
func (h *hostLimiter) Wait(ctx context.Context) error {
	h.mu.Lock()
	until := h.until
	h.mu.Unlock()

	if d := time.Until(until); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return h.bucket.Wait(ctx)
}

// Backoff pauses the host for d. A shorter backoff never shortens a longer one.
func (h *hostLimiter) Backoff(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if until := time.Now().Add(d); until.After(h.until) {
		h.until = until
	}
}
