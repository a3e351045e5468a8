package search

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// Ensure Google implements the interface.
var _ driven.SearchProvider = (*Google)(nil)

// maxGooglePage is the largest page the Custom Search API returns.
const maxGooglePage = 10

// GoogleConfig holds Custom Search credentials.
type GoogleConfig struct {
	APIKey   string
	EngineID string

	// Endpoint overrides the API base URL. Used by tests.
	Endpoint string
}

// Google returns result links from the Custom Search JSON API.
type Google struct {
	svc      *customsearch.Service
	engineID string
}

// NewGoogle creates a Google provider.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, fmt.Errorf("google search: api key and engine id are required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google search: create service: %w", err)
	}
	return &Google{svc: svc, engineID: cfg.EngineID}, nil
}

// Search returns up to maxResults links, paging through the API as needed.
func (g *Google) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	var urls []string
	for start := int64(1); len(urls) < maxResults; start += maxGooglePage {
		num := min(maxResults-len(urls), maxGooglePage)
		res, err := g.svc.Cse.List().
			Q(query).
			Cx(g.engineID).
			Num(int64(num)).
			Start(start).
			Context(ctx).
			Do()
		if err != nil {
			return urls, fmt.Errorf("google search: %w", err)
		}
		for _, item := range res.Items {
			if item.Link != "" {
				urls = append(urls, item.Link)
			}
		}
		if len(res.Items) < num {
			break
		}
	}
	if len(urls) > maxResults {
		urls = urls[:maxResults]
	}
	return urls, nil
}

// Name identifies the provider in logs.
func (g *Google) Name() string {
	return "google"
}
