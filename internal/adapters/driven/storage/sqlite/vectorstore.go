package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Add appends records in one transaction. A dimension that differs from the
// stored records rejects the whole batch.
func (s *vectorStore) Add(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var dim int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(dimension), 0) FROM records").Scan(&dim); err != nil {
		return fmt.Errorf("reading dimension: %w", err)
	}
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

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, content, source, position, embedding, dimension, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Chunk.Content, r.Chunk.Source, r.Chunk.Position,
			float32SliceToBytes(r.Embedding), len(r.Embedding), toUnixNano(r.CreatedAt)); err != nil {
			return fmt.Errorf("saving record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search scores every stored record and returns the best k.
func (s *vectorStore) Search(ctx context.Context, query []float32, k int) ([]domain.RankedRecord, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT seq, id, content, source, position, embedding, created_at
		FROM records WHERE dimension = ?
		ORDER BY seq
	`, len(query))
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var candidates []rank.Candidate //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			c         rank.Candidate
			blob      []byte
			createdAt int64
		)
		if err := rows.Scan(&c.Seq, &c.Record.ID, &c.Record.Chunk.Content, &c.Record.Chunk.Source,
			&c.Record.Chunk.Position, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		c.Record.Embedding = bytesToFloat32Slice(blob)
		c.Record.CreatedAt = unixNano(createdAt)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return rank.TopK(query, candidates, k), nil
}

// Count returns the number of stored records.
func (s *vectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}
