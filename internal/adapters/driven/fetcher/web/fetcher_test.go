package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

func newUnlimited() *Fetcher {
	return NewFetcher(Config{PerHostRate: -1})
}

func TestFetch_SendsFixedHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	outcome := newUnlimited().Fetch(context.Background(), srv.URL, time.Second)

	require.True(t, outcome.OK(), "unexpected failure: %v", outcome.Failure)
	assert.Equal(t, srv.URL, outcome.URL)
	assert.Contains(t, outcome.Content, "ok")
	assert.Equal(t, UserAgent, got.Get("User-Agent"))
	assert.Equal(t, AcceptLanguage, got.Get("Accept-Language"))
	assert.Equal(t, Accept, got.Get("Accept"))
}

func TestFetch_CapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	f := NewFetcher(Config{MaxBytes: 10, PerHostRate: -1})
	outcome := f.Fetch(context.Background(), srv.URL, time.Second)

	require.True(t, outcome.OK())
	assert.Len(t, outcome.Content, 10)
}

func TestFetch_FailureClassification(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name       string
		url        string
		wantCause  domain.FailureCause
		wantStatus int
	}{
		{"timeout", slow.URL, domain.FailureTimeout, 0},
		{"http error", notFound.URL, domain.FailureHTTP, http.StatusNotFound},
		{"refused", closedURL, domain.FailureConnection, 0},
		{"relative", "/just/a/path", domain.FailureConnection, 0},
		{"bad scheme", "ftp://example.com/file", domain.FailureConnection, 0},
		{"malformed", "http://[::1", domain.FailureConnection, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := newUnlimited().Fetch(context.Background(), tt.url, 100*time.Millisecond)

			require.False(t, outcome.OK())
			assert.Equal(t, tt.wantCause, outcome.Failure.Cause)
			assert.Equal(t, tt.wantStatus, outcome.Failure.StatusCode)
			assert.Empty(t, outcome.Content)
			assert.Equal(t, tt.url, outcome.URL)
		})
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	outcome := newUnlimited().Fetch(ctx, srv.URL, 5*time.Second)

	require.False(t, outcome.OK())
	assert.Equal(t, domain.FailureTimeout, outcome.Failure.Cause)
}

func TestFetch_RetryAfterBacksOffHost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set(HeaderRetryAfter, "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("fine"))
	}))
	defer srv.Close()

	f := newUnlimited()
	first := f.Fetch(context.Background(), srv.URL, time.Second)
	require.False(t, first.OK())
	assert.Equal(t, "http-error{429}", first.Failure.String())

	// The host is paused for a second, longer than this timeout.
	blocked := f.Fetch(context.Background(), srv.URL, 100*time.Millisecond)
	require.False(t, blocked.OK())
	assert.Equal(t, domain.FailureTimeout, blocked.Failure.Cause)
	assert.EqualValues(t, 1, calls.Load())

	time.Sleep(time.Second)
	after := f.Fetch(context.Background(), srv.URL, time.Second)
	assert.True(t, after.OK())
}

func TestFetch_RateLimitPastDeadlineIsTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// One request every ten seconds; the second cannot get a slot in time.
	f := NewFetcher(Config{PerHostRate: 0.1})
	first := f.Fetch(context.Background(), srv.URL, time.Second)
	require.True(t, first.OK())

	second := f.Fetch(context.Background(), srv.URL, time.Second)

	require.False(t, second.OK())
	assert.Equal(t, domain.FailureTimeout, second.Failure.Cause)
	assert.Equal(t, "timeout", second.Failure.String())
	assert.EqualValues(t, 1, calls.Load())
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"", 0, false},
		{"5", 5 * time.Second, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"3600", maxBackoff, true},
		{now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second, true},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := parseRetryAfter(tt.value, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHostLimiter_BackoffNeverShortens(t *testing.T) {
	h := newHostLimiter(-1)
	h.Backoff(time.Hour)
	long := h.until

	h.Backoff(time.Second)

	assert.Equal(t, long, h.until)
}
