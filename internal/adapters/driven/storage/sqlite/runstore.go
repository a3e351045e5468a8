package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, query, state, failed_stage, error, urls, fetched, fetch_fails,
	indexed, index_fails, retrieved, degraded, started_at, finished_at`

// SaveRun stores or replaces a run summary.
func (s *runStore) SaveRun(ctx context.Context, run domain.RunSummary) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}

	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			query = excluded.query,
			state = excluded.state,
			failed_stage = excluded.failed_stage,
			error = excluded.error,
			urls = excluded.urls,
			fetched = excluded.fetched,
			fetch_fails = excluded.fetch_fails,
			indexed = excluded.indexed,
			index_fails = excluded.index_fails,
			retrieved = excluded.retrieved,
			degraded = excluded.degraded,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, run.ID, run.Query, string(run.State), string(run.FailedStage), run.Error,
		run.URLs, run.Fetched, run.FetchFails, run.Indexed, run.IndexFails, run.Retrieved,
		run.Degraded, toUnixNano(run.StartedAt), toUnixNano(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// GetRun retrieves a run by ID.
func (s *runStore) GetRun(ctx context.Context, id string) (*domain.RunSummary, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.RunSummary, error) {
	var (
		run                 domain.RunSummary
		state, failedStage  string
		startedAt, finished int64
	)
	if err := row.Scan(&run.ID, &run.Query, &state, &failedStage, &run.Error,
		&run.URLs, &run.Fetched, &run.FetchFails, &run.Indexed, &run.IndexFails,
		&run.Retrieved, &run.Degraded, &startedAt, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.State = domain.State(state)
	run.FailedStage = domain.State(failedStage)
	run.StartedAt = unixNano(startedAt)
	run.FinishedAt = unixNano(finished)
	return &run, nil
}

// unixNano converts stored nanoseconds back to a UTC time. Zero stays zero.
func unixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// toUnixNano stores the zero time as 0.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
