package search

import (
	"context"
	"fmt"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// NewProvider builds the configured provider, wrapped in a rate limiter.
func NewProvider(ctx context.Context, s domain.SearchSettings) (driven.SearchProvider, error) {
	var inner driven.SearchProvider
	switch s.Provider {
	case domain.SearchProviderGoogle:
		g, err := NewGoogle(ctx, GoogleConfig{APIKey: s.APIKey, EngineID: s.EngineID})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
		}
		inner = g
	case domain.SearchProviderDuckDuckGo, "":
		inner = NewDuckDuckGo("")
	case domain.SearchProviderNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown search provider %q", domain.ErrInvalidConfig, s.Provider)
	}
	return NewRateLimited(inner, s.RatePerSecond), nil
}
