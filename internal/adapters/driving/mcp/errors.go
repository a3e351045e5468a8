// Package mcp provides an MCP (Model Context Protocol) server adapter for owngpt.
// It lets AI assistants ask questions, retrieve stored context and index
// pages through the same pipeline as the CLI.
package mcp

import "errors"

// ErrMissingPipeline is returned when the pipeline is not provided.
var ErrMissingPipeline = errors.New("mcp: pipeline is required")
