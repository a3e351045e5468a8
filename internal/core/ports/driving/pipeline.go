package driving

import (
	"context"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// AskOptions tunes a single Ask run.
type AskOptions struct {
	// OnFragment receives answer fragments as they stream in.
	OnFragment func(fragment string)

	// OnState is called on every state transition.
	OnState func(state domain.State)

	// URLs seeds the run directly and skips the search provider.
	URLs []string

	// NoSearch skips web search; the answer relies on stored knowledge.
	NoSearch bool

	// K overrides the configured retrieval depth when positive.
	K int
}

// Pipeline answers queries with retrieval-augmented generation.
type Pipeline interface {
	// Ask runs the full pipeline: search, fetch, extract, chunk, index,
	// retrieve and generate. The returned report is non-nil whenever a run
	// was started. The error is non-nil only for invalid input or a run
	// that reached the Failed state.
	Ask(ctx context.Context, query string, opts AskOptions) (*domain.RunReport, error)

	// Index fetches, extracts, chunks and indexes urls without generating.
	Index(ctx context.Context, urls []string) (*domain.RunReport, error)

	// Retrieve returns the k stored chunks most similar to query.
	Retrieve(ctx context.Context, query string, k int) (*domain.RetrievedContext, error)
}

// HistoryService exposes past runs.
type HistoryService interface {
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Get returns one run by ID.
	Get(ctx context.Context, id string) (*domain.RunSummary, error)
}
