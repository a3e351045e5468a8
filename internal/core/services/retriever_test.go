package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/owngpt/internal/core/domain"
)

func seededRetriever(t *testing.T, embedder *mockEmbedder, contents ...string) *Retriever {
	t.Helper()
	store := memory.NewVectorStore()
	report := NewIndexer(embedder, store).Index(context.Background(), chunksOf("http://a.test", contents...))
	require.Equal(t, len(contents), report.Indexed)
	return NewRetriever(embedder, store)
}

func TestRetriever_RanksBySimilarity(t *testing.T) {
	embedder := &mockEmbedder{}
	retriever := seededRetriever(t, embedder, "zzzz", "aaaa", "aazz")

	got, err := retriever.Retrieve(context.Background(), "aaaa", 2)

	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "aaaa", got.Records[0].Record.Chunk.Content)
	assert.Equal(t, "aazz", got.Records[1].Record.Chunk.Content)
	assert.Equal(t, "aaaa\n\naazz", got.Text)
	assert.Equal(t, []string{"http://a.test"}, got.Sources())
}

func TestRetriever_KZero(t *testing.T) {
	embedder := &mockEmbedder{}
	retriever := seededRetriever(t, embedder, "aaaa")
	before := embedder.embedCalls.Load()

	got, err := retriever.Retrieve(context.Background(), "aaaa", 0)

	require.NoError(t, err)
	assert.Empty(t, got.Records)
	assert.Empty(t, got.Text)
	assert.Equal(t, before, embedder.embedCalls.Load())
}

func TestRetriever_NegativeK(t *testing.T) {
	_, err := NewRetriever(&mockEmbedder{}, memory.NewVectorStore()).Retrieve(context.Background(), "q", -1)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetriever_KLargerThanStore(t *testing.T) {
	retriever := seededRetriever(t, &mockEmbedder{}, "aaaa", "bbbb")

	got, err := retriever.Retrieve(context.Background(), "aaaa", 10)

	require.NoError(t, err)
	assert.Len(t, got.Records, 2)
}

func TestRetriever_EmptyStore(t *testing.T) {
	got, err := NewRetriever(&mockEmbedder{}, memory.NewVectorStore()).Retrieve(context.Background(), "q", 3)

	require.NoError(t, err)
	assert.Empty(t, got.Records)
	assert.Empty(t, got.Text)
}

func TestRetriever_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRetriever(&mockEmbedder{failOn: "q"}, memory.NewVectorStore()).Retrieve(ctx, "q", 3)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = NewRetriever(&mockEmbedder{}, &failingVectorStore{addErr: errors.New("down")}).Retrieve(ctx, "q", 3)
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)

	_, err = NewRetriever(nil, memory.NewVectorStore()).Retrieve(ctx, "q", 3)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
