package driven

import (
	"context"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// VectorStore is the persistent knowledge index.
//
// It is append-only: records are added and searched, never updated or
// deleted. Each record carries its chunk and source metadata together, so
// there is no positional pairing to corrupt.
type VectorStore interface {
	// Add appends records as one batch. Implementations apply the batch
	// atomically where the backend allows it.
	Add(ctx context.Context, records []domain.Record) error

	// Search returns up to k records ranked by cosine similarity to query.
	// Equal similarities are ordered by insertion, oldest first.
	Search(ctx context.Context, query []float32, k int) ([]domain.RankedRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
