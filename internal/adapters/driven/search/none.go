package search

import (
	"context"

	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// Ensure None implements the interface.
var _ driven.SearchProvider = None{}

// None never returns results.
type None struct{}

// Search returns no URLs.
func (None) Search(context.Context, string, int) ([]string, error) {
	return nil, nil
}

// Name identifies the provider in logs.
func (None) Name() string {
	return "none"
}
