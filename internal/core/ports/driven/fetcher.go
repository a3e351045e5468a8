package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// Fetcher retrieves raw page content.
type Fetcher interface {
	// Fetch retrieves url within timeout. It never returns an error: failures
	// are reported through FetchOutcome.Failure, tagged with their cause.
	Fetch(ctx context.Context, url string, timeout time.Duration) domain.FetchOutcome
}
