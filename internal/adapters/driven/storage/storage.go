// Package storage opens the vector store and run history selected by
// store.backend.
//
// Run history always lives in SQLite under the data directory unless the
// memory backend is selected, in which case nothing touches the disk.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
)

// Stores bundles the persistence adapters of one process.
type Stores struct {
	Vectors driven.VectorStore
	Runs    driven.RunStore

	closers []func() error
}

// DefaultDataDir returns ~/.owngpt/data.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".owngpt", "data"), nil
}

// Open creates the stores for settings.Backend.
// An empty settings.Path resolves to DefaultDataDir.
func Open(settings domain.StoreSettings) (*Stores, error) {
	if settings.Path == "" && settings.Backend != domain.StoreBackendMemory {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		settings.Path = dir
	}

	switch settings.Backend {
	case domain.StoreBackendMemory:
		vectors := memory.NewVectorStore()
		return &Stores{
			Vectors: vectors,
			Runs:    memory.NewRunStore(),
			closers: []func() error{vectors.Close},
		}, nil

	case domain.StoreBackendSQLite, "":
		db, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		logger.Debug("sqlite store at %s", db.Path())
		return &Stores{
			Vectors: db.VectorStore(),
			Runs:    db.RunStore(),
			closers: []func() error{db.Close},
		}, nil

	case domain.StoreBackendBolt:
		db, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		vectors, err := bolt.NewVectorStore(settings.Path)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		return &Stores{
			Vectors: vectors,
			Runs:    db.RunStore(),
			closers: []func() error{vectors.Close, db.Close},
		}, nil

	case domain.StoreBackendQdrant:
		db, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		addr := settings.QdrantAddr
		if addr == "" {
			addr = domain.DefaultQdrantAddr
		}
		collection := settings.Collection
		if collection == "" {
			collection = domain.DefaultCollection
		}
		vectors, err := qdrant.NewVectorStore(addr, collection)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		return &Stores{
			Vectors: vectors,
			Runs:    db.RunStore(),
			closers: []func() error{vectors.Close, db.Close},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfig, settings.Backend)
	}
}

// Close closes every store.
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
