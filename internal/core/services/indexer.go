package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
)

// Indexer embeds chunks and appends them to the vector store.
//
// Each call writes its records with a single VectorStore.Add while holding
// the indexer's batch mutex, so concurrent runs never interleave within a
// batch. Records are only ever appended.
type Indexer struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore

	mu  sync.Mutex
	now func() time.Time
}

// NewIndexer creates an indexer.
// The embedder must be the same instance the Retriever uses.
func NewIndexer(embedder driven.EmbeddingService, store driven.VectorStore) *Indexer {
	return &Indexer{
		embedder: embedder,
		store:    store,
		now:      time.Now,
	}
}

// Index embeds and stores chunks, counting every failure.
func (i *Indexer) Index(ctx context.Context, chunks []domain.Chunk) domain.IndexReport {
	chunks = dedupeChunks(chunks)
	if len(chunks) == 0 {
		return domain.IndexReport{}
	}

	if i.embedder == nil {
		return domain.IndexReport{Failed: len(chunks), Err: domain.ErrEmbeddingUnavailable}
	}
	if i.store == nil {
		return domain.IndexReport{Failed: len(chunks), Err: domain.ErrVectorStoreUnavailable}
	}

	// 1. Embed
	vectors, embedErrs := i.embed(ctx, chunks)

	// 2. Build records for every chunk that produced a usable vector
	var (
		records []domain.Record
		errs    []error
		failed  int
	)
	want := i.embedder.Dimensions()
	createdAt := i.now().UTC()
	for idx, chunk := range chunks {
		if embedErrs[idx] != nil {
			failed++
			errs = append(errs, embedErrs[idx])
			continue
		}
		vec := vectors[idx]
		if want == 0 {
			want = len(vec)
		}
		if len(vec) == 0 || len(vec) != want {
			failed++
			errs = append(errs, fmt.Errorf("chunk %d of %s: %w: got %d, want %d",
				chunk.Position, chunk.Source, domain.ErrDimensionMismatch, len(vec), want))
			continue
		}
		records = append(records, domain.Record{
			ID:        uuid.NewString(),
			Chunk:     chunk,
			Embedding: vec,
			CreatedAt: createdAt,
		})
	}

	// 3. Append as one batch
	indexed := 0
	if len(records) > 0 {
		i.mu.Lock()
		err := i.store.Add(ctx, records)
		i.mu.Unlock()

		if err != nil {
			failed += len(records)
			errs = append(errs, fmt.Errorf("store %d records: %w", len(records), err))
		} else {
			indexed = len(records)
		}
	}

	report := domain.IndexReport{
		Indexed: indexed,
		Failed:  failed,
		Err:     errors.Join(errs...),
	}
	if report.Failed > 0 {
		logger.Warn("Indexed %d chunks, %d failed: %v", report.Indexed, report.Failed, report.Err)
	} else {
		logger.Debug("Indexed %d chunks", report.Indexed)
	}
	return report
}

// embed tries one batch call and falls back to per-chunk calls, so a
// single bad chunk only fails itself.
func (i *Indexer) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, []error) {
	texts := make([]string, len(chunks))
	for idx, c := range chunks {
		texts[idx] = c.Content
	}
	errs := make([]error, len(chunks))

	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors, errs
	}
	if err == nil {
		err = fmt.Errorf("batch returned %d vectors for %d texts", len(vectors), len(texts))
	}
	logger.Debug("Batch embedding failed, falling back to per-chunk: %v", err)

	vectors = make([][]float32, len(texts))
	for idx, text := range texts {
		vec, embedErr := i.embedder.Embed(ctx, text)
		if embedErr != nil {
			errs[idx] = fmt.Errorf("embed chunk %d of %s: %w",
				chunks[idx].Position, chunks[idx].Source, embedErr)
			continue
		}
		vectors[idx] = vec
	}
	return vectors, errs
}

// dedupeChunks drops repeated chunks so nothing is indexed twice in one call.
func dedupeChunks(chunks []domain.Chunk) []domain.Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	seen := make(map[domain.Chunk]bool, len(chunks))
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
