package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query    string   `json:"query" jsonschema:"the question to answer"`
	URLs     []string `json:"urls,omitempty" jsonschema:"pages to read instead of searching the web"`
	NoSearch bool     `json:"no_search,omitempty" jsonschema:"answer from already indexed pages only"`
	K        int      `json:"k,omitempty" jsonschema:"number of context chunks to use (default from config)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string   `json:"answer"`
	Degraded bool     `json:"degraded"`
	Sources  []string `json:"sources"`
	RunID    string   `json:"run_id"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find similar stored chunks for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default 3)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput is one retrieved chunk.
type ChunkOutput struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}

// IndexInput is the input schema for the index_urls tool.
type IndexInput struct {
	URLs []string `json:"urls" jsonschema:"absolute URLs of pages to fetch and index"`
}

// IndexOutput is the output schema for the index_urls tool.
type IndexOutput struct {
	Fetched       int      `json:"fetched"`
	FailedURLs    []string `json:"failed_urls,omitempty"`
	ChunksIndexed int      `json:"chunks_indexed"`
	ChunksFailed  int      `json:"chunks_failed"`
}

const defaultRetrieveK = domain.DefaultRetrievalK

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from web pages and previously indexed knowledge",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the stored text chunks most similar to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_urls",
		Description: "Fetch pages and add their text to the knowledge store",
	}, s.handleIndex)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	report, err := s.ports.Pipeline.Ask(ctx, input.Query, driving.AskOptions{
		URLs:     input.URLs,
		NoSearch: input.NoSearch,
		K:        input.K,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:   report.Answer,
		Degraded: report.Degraded,
		Sources:  contextSources(report.Context),
		RunID:    report.ID,
	}, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	k := input.K
	if k <= 0 {
		k = defaultRetrieveK
	}

	rctx, err := s.ports.Pipeline.Retrieve(ctx, input.Query, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Chunks: make([]ChunkOutput, len(rctx.Records)),
		Count:  len(rctx.Records),
	}
	for i, r := range rctx.Records {
		output.Chunks[i] = ChunkOutput{
			Content:    r.Record.Chunk.Content,
			Source:     r.Record.Chunk.Source,
			Similarity: r.Similarity,
			Rank:       r.Rank,
		}
	}
	return nil, output, nil
}

func (s *Server) handleIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	report, err := s.ports.Pipeline.Index(ctx, input.URLs)
	if err != nil {
		return nil, IndexOutput{}, err
	}

	output := IndexOutput{
		Fetched:       len(report.Fetch.Succeeded()),
		ChunksIndexed: report.Index.Indexed,
		ChunksFailed:  report.Index.Failed,
	}
	for _, f := range report.Fetch.Failed() {
		output.FailedURLs = append(output.FailedURLs, f.URL+" ("+f.Failure.String()+")")
	}
	return nil, output, nil
}

// contextSources lists the distinct source URLs of rctx in rank order.
func contextSources(rctx domain.RetrievedContext) []string {
	seen := make(map[string]bool)
	sources := []string{}
	for _, r := range rctx.Records {
		src := strings.TrimSpace(r.Record.Chunk.Source)
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	return sources
}
