package mcp

import (
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Pipeline answers, retrieves and indexes.
	Pipeline driving.Pipeline

	// History exposes past runs. Optional.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}
