package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory, append-only vector store.
// Records are lost when the process exits.
type VectorStore struct {
	mu        sync.RWMutex
	records   []rank.Candidate
	seq       uint64
	dimension int
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{}
}

// Add appends records as one batch. Either every record is stored or none.
func (s *VectorStore) Add(_ context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("record %s: %w: empty embedding", r.ID, domain.ErrInvalidInput)
		}
		if dim == 0 {
			dim = len(r.Embedding)
		}
		if len(r.Embedding) != dim {
			return fmt.Errorf("record %s: %w: got %d, want %d",
				r.ID, domain.ErrDimensionMismatch, len(r.Embedding), dim)
		}
	}

	s.dimension = dim
	for _, r := range records {
		s.seq++
		s.records = append(s.records, rank.Candidate{Record: r, Seq: s.seq})
	}
	return nil
}

// Search returns up to k records ranked by cosine similarity.
func (s *VectorStore) Search(_ context.Context, query []float32, k int) ([]domain.RankedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rank.TopK(query, s.records, k), nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close releases resources (no-op for memory store).
func (s *VectorStore) Close() error {
	return nil
}
