package mcp

import (
	"context"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

// mockPipeline is a mock implementation of driving.Pipeline.
type mockPipeline struct {
	report   *domain.RunReport
	retrieve *domain.RetrievedContext
	err      error

	gotQuery string
	gotOpts  driving.AskOptions
	gotURLs  []string
	gotK     int
}

func (m *mockPipeline) Ask(_ context.Context, query string, opts driving.AskOptions) (*domain.RunReport, error) {
	m.gotQuery = query
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return &domain.RunReport{}, nil
	}
	return m.report, nil
}

func (m *mockPipeline) Index(_ context.Context, urls []string) (*domain.RunReport, error) {
	m.gotURLs = urls
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return &domain.RunReport{}, nil
	}
	return m.report, nil
}

func (m *mockPipeline) Retrieve(_ context.Context, query string, k int) (*domain.RetrievedContext, error) {
	m.gotQuery = query
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	if m.retrieve == nil {
		return &domain.RetrievedContext{}, nil
	}
	return m.retrieve, nil
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	runs []domain.RunSummary
	err  error
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.RunSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.runs) > limit {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockHistoryService) Get(_ context.Context, id string) (*domain.RunSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}
