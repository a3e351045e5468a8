package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
	"github.com/custodia-labs/owngpt/internal/observability"
)

// FetchAll fetches urls with at most settings.Concurrency requests in flight.
//
// The result holds one outcome per distinct URL in first-seen order.
// A failing URL never affects its siblings. FetchAll returns only after
// every worker has finished, so no goroutine outlives the call.
func FetchAll(
	ctx context.Context,
	fetcher driven.Fetcher,
	urls []string,
	settings domain.FetchSettings,
) domain.FetchResult {
	unique := dedupeURLs(urls)
	if len(unique) == 0 {
		return domain.FetchResult{}
	}

	concurrency := settings.Concurrency
	if concurrency <= 0 {
		concurrency = domain.DefaultConcurrency
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultFetchTimeout
	}

	logger.Debug("Fetching %d URLs (concurrency %d, timeout %s)", len(unique), concurrency, timeout)

	// Each worker writes only its own slot.
	outcomes := make([]domain.FetchOutcome, len(unique))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, u := range unique {
		g.Go(func() error {
			outcomes[i] = fetchOne(ctx, fetcher, u, timeout)
			return nil
		})
	}
	_ = g.Wait()

	result := domain.FetchResult{Outcomes: outcomes}
	logger.Debug("Fetched %d/%d URLs", len(result.Succeeded()), result.Len())
	return result
}

func fetchOne(ctx context.Context, fetcher driven.Fetcher, url string, timeout time.Duration) domain.FetchOutcome {
	ctx, span := observability.StartFetchSpan(ctx, url)
	defer span.End()

	var outcome domain.FetchOutcome
	if err := ctx.Err(); err != nil {
		// Cancelled while queued behind the pool limit.
		outcome = domain.FetchOutcome{
			URL:     url,
			Failure: &domain.FetchFailure{URL: url, Cause: domain.FailureTimeout, Err: err},
		}
	} else {
		outcome = fetcher.Fetch(ctx, url, timeout)
		outcome.URL = url
	}

	if outcome.OK() {
		observability.RecordFetchResult(span, len(outcome.Content), "")
	} else {
		logger.Debug("Fetch %s failed: %s", url, outcome.Failure)
		observability.RecordFetchResult(span, 0, outcome.Failure.String())
	}
	return outcome
}

func dedupeURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
