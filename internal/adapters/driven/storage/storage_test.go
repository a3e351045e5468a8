package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

func TestOpen_LocalBackends(t *testing.T) {
	for _, backend := range []domain.StoreBackend{
		domain.StoreBackendMemory,
		domain.StoreBackendSQLite,
		domain.StoreBackendBolt,
	} {
		t.Run(backend.String(), func(t *testing.T) {
			ctx := context.Background()
			stores, err := Open(domain.StoreSettings{Backend: backend, Path: t.TempDir()})
			require.NoError(t, err)
			defer stores.Close()

			err = stores.Vectors.Add(ctx, []domain.Record{{
				ID:        "r1",
				Chunk:     domain.Chunk{Content: "hello", Source: "https://a.example"},
				Embedding: []float32{1, 0},
				CreatedAt: time.Now(),
			}})
			require.NoError(t, err)

			n, err := stores.Vectors.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			require.NoError(t, stores.Runs.SaveRun(ctx, domain.RunSummary{ID: "run-1", Query: "q"}))
			runs, err := stores.Runs.ListRuns(ctx, 10)
			require.NoError(t, err)
			assert.Len(t, runs, 1)
		})
	}
}

func TestOpen_SQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	stores, err := Open(domain.StoreSettings{Backend: domain.StoreBackendSQLite, Path: dir})
	require.NoError(t, err)
	require.NoError(t, stores.Vectors.Add(ctx, []domain.Record{{
		ID:        "r1",
		Chunk:     domain.Chunk{Content: "kept"},
		Embedding: []float32{0, 1},
	}}))
	require.NoError(t, stores.Close())

	stores, err = Open(domain.StoreSettings{Backend: domain.StoreBackendSQLite, Path: dir})
	require.NoError(t, err)
	defer stores.Close()

	n, err := stores.Vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(domain.StoreSettings{Backend: "cassandra"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestStores_CloseTwice(t *testing.T) {
	stores, err := Open(domain.StoreSettings{Backend: domain.StoreBackendMemory})
	require.NoError(t, err)
	require.NoError(t, stores.Close())
	assert.NoError(t, stores.Close())
}
