// Package search provides web search providers that turn a query into seed URLs.
//
// Providers:
//   - Google: Custom Search JSON API (needs an API key and engine ID)
//   - DuckDuckGo: the HTML endpoint, no key needed
//   - None: always empty, for answering from stored knowledge only
//
// NewProvider builds the configured provider and wraps it in a rate limiter.
package search
