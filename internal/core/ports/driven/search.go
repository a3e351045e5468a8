package driven

import "context"

// SearchProvider returns candidate URLs for a query.
type SearchProvider interface {
	// Search returns up to maxResults absolute URLs in relevance order.
	Search(ctx context.Context, query string, maxResults int) ([]string, error)

	// Name identifies the provider in logs.
	Name() string
}
