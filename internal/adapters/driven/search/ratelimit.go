package search

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
)

// Ensure RateLimited implements the interface.
var _ driven.SearchProvider = (*RateLimited)(nil)

// RateLimited paces calls to a provider with a token bucket.
// Provider errors are wrapped with domain.ErrSearchUnavailable.
type RateLimited struct {
	inner  driven.SearchProvider
	bucket *rate.Limiter
}

// NewRateLimited wraps inner so it is called at most perSecond times a second.
// A non-positive rate disables pacing.
func NewRateLimited(inner driven.SearchProvider, perSecond float64) *RateLimited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimited{inner: inner, bucket: rate.NewLimiter(limit, 1)}
}

// Search waits for a token, then delegates.
func (r *RateLimited) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	if maxResults <= 0 {
		return nil, nil
	}
	if err := r.bucket.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrRateLimited, r.inner.Name(), err)
	}

	urls, err := r.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	logger.Debug("search: %s returned %d urls", r.inner.Name(), len(urls))
	return urls, nil
}

// Name returns the wrapped provider's name.
func (r *RateLimited) Name() string {
	return r.inner.Name()
}
