package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
)

// Retriever returns the stored chunks most similar to a query.
type Retriever struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
}

// NewRetriever creates a retriever.
// The embedder must be the same instance the Indexer uses.
func NewRetriever(embedder driven.EmbeddingService, store driven.VectorStore) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve embeds query and returns the top k records in rank order.
// k == 0 returns an empty context without touching the embedder.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievedContext, error) {
	if k < 0 {
		return domain.RetrievedContext{}, fmt.Errorf("%w: k must not be negative, got %d", domain.ErrInvalidInput, k)
	}
	if k == 0 {
		return domain.RetrievedContext{}, nil
	}
	if r.embedder == nil {
		return domain.RetrievedContext{}, domain.ErrEmbeddingUnavailable
	}
	if r.store == nil {
		return domain.RetrievedContext{}, domain.ErrVectorStoreUnavailable
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return domain.RetrievedContext{}, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingUnavailable, err)
	}

	records, err := r.store.Search(ctx, vec, k)
	if err != nil {
		return domain.RetrievedContext{}, fmt.Errorf("%w: search: %w", domain.ErrVectorStoreUnavailable, err)
	}

	logger.Debug("Retrieved %d/%d records", len(records), k)
	return domain.NewRetrievedContext(records), nil
}
