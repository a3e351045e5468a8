package driven

import (
	"context"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// RunStore persists pipeline run summaries.
type RunStore interface {
	// SaveRun records a finished run.
	SaveRun(ctx context.Context, run domain.RunSummary) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// GetRun returns a single run or domain.ErrNotFound.
	GetRun(ctx context.Context, id string) (*domain.RunSummary, error)
}
