package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

func record(id, content string, vec ...float32) domain.Record {
	return domain.Record{
		ID:        id,
		Chunk:     domain.Chunk{Content: content, Source: "http://a.test"},
		Embedding: vec,
	}
}

func TestVectorStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	err := store.Add(ctx, []domain.Record{
		record("1", "cats", 1, 0),
		record("2", "dogs", 0, 1),
	})
	require.NoError(t, err)

	got, err := store.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cats", got[0].Record.Chunk.Content)
	assert.Equal(t, "http://a.test", got[0].Record.Chunk.Source)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestVectorStore_SearchEmpty(t *testing.T) {
	got, err := NewVectorStore().Search(context.Background(), []float32{1}, 3)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVectorStore_DimensionMismatchRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()
	require.NoError(t, store.Add(ctx, []domain.Record{record("1", "a", 1, 0)}))

	err := store.Add(ctx, []domain.Record{
		record("2", "b", 0, 1),
		record("3", "c", 1, 0, 0),
	})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	n, _ := store.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestVectorStore_EmptyEmbedding(t *testing.T) {
	err := NewVectorStore().Add(context.Background(), []domain.Record{record("1", "a")})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_ConcurrentAddsOnlyGrow(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Add(ctx, []domain.Record{record("x", "x", 1, 0), record("y", "y", 0, 1)})
		}()
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, n)
	assert.NoError(t, store.Close())
}
