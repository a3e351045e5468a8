package domain

import (
	"fmt"
	"time"
)

// FailureCause classifies why a single fetch failed.
type FailureCause string

// Fetch failure causes.
const (
	// FailureTimeout means the per-URL timeout or the caller's deadline expired.
	FailureTimeout FailureCause = "timeout"

	// FailureConnection covers DNS, dial, TLS and malformed URL errors.
	FailureConnection FailureCause = "connection-error"

	// FailureHTTP means the server answered with a non-2xx status.
	FailureHTTP FailureCause = "http-error"
)

// FetchFailure is the failure marker for one URL.
// It is a value, not a run-level error: a failed URL never aborts its siblings.
type FetchFailure struct {
	// URL is the address that failed.
	URL string

	// Cause is the failure class.
	Cause FailureCause

	// StatusCode is set for FailureHTTP.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// String renders the cause, e.g. "timeout" or "http-error{404}".
func (f *FetchFailure) String() string {
	if f.Cause == FailureHTTP {
		return fmt.Sprintf("%s{%d}", f.Cause, f.StatusCode)
	}
	return string(f.Cause)
}

// Error implements error.
func (f *FetchFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", f.URL, f.String(), f.Err)
	}
	return fmt.Sprintf("fetch %s: %s", f.URL, f.String())
}

// Unwrap returns the underlying transport error.
func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// FetchOutcome is the result of fetching one URL: content or a failure marker.
type FetchOutcome struct {
	// URL is the fetched address.
	URL string

	// Content is the raw response body. Empty when Failure is set.
	Content string

	// Failure is nil on success.
	Failure *FetchFailure

	// Duration is how long the fetch took.
	Duration time.Duration
}

// OK reports whether the fetch succeeded.
func (o FetchOutcome) OK() bool {
	return o.Failure == nil
}

// FetchResult maps each requested URL to its outcome.
// Outcomes keep the order in which URLs were requested.
type FetchResult struct {
	Outcomes []FetchOutcome
}

// Get returns the outcome for a URL.
func (r FetchResult) Get(url string) (FetchOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.URL == url {
			return o, true
		}
	}
	return FetchOutcome{}, false
}

// Succeeded returns the successful outcomes in request order.
func (r FetchResult) Succeeded() []FetchOutcome {
	var out []FetchOutcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the failed outcomes in request order.
func (r FetchResult) Failed() []FetchOutcome {
	var out []FetchOutcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Len returns the number of URLs in the result.
func (r FetchResult) Len() int {
	return len(r.Outcomes)
}
