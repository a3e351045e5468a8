package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for owngpt resources.
	uriScheme = "owngpt://"

	// recentRuns caps the runs resource.
	recentRuns = 20
)

// runInfo is the JSON view of one run.
type runInfo struct {
	ID          string    `json:"id"`
	Query       string    `json:"query,omitempty"`
	State       string    `json:"state"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	URLs        int       `json:"urls"`
	Fetched     int       `json:"fetched"`
	Indexed     int       `json:"indexed"`
	Retrieved   int       `json:"retrieved"`
	Degraded    bool      `json:"degraded"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// registerResources registers the run history resources.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Most recent pipeline runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}",
		Name:        "run",
		Description: "A single pipeline run",
		MIMEType:    "application/json",
	}, s.handleRunResource)
}

func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return jsonResource(req.Params.URI, []runInfo{})
	}

	runs, err := s.ports.History.Recent(ctx, recentRuns)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	infos := make([]runInfo, len(runs))
	for i := range runs {
		infos[i] = toRunInfo(runs[i])
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractRunID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, err := s.ports.History.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return jsonResource(req.Params.URI, toRunInfo(*run))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func toRunInfo(r domain.RunSummary) runInfo {
	return runInfo{
		ID:          r.ID,
		Query:       r.Query,
		State:       r.State.String(),
		FailedStage: string(r.FailedStage),
		Error:       r.Error,
		URLs:        r.URLs,
		Fetched:     r.Fetched,
		Indexed:     r.Indexed,
		Retrieved:   r.Retrieved,
		Degraded:    r.Degraded,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

// extractRunID extracts the run ID from a URI like owngpt://runs/{runId}.
func extractRunID(uri string) string {
	const prefix = uriScheme + "runs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
