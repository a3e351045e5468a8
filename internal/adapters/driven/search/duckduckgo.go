package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	xhtml "golang.org/x/net/html"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/fetcher/web"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// Ensure DuckDuckGo implements the interface.
var _ driven.SearchProvider = (*DuckDuckGo)(nil)

// Default configuration values.
const (
	DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"
	DefaultSearchTimeout = 10 * time.Second
)

// DuckDuckGo scrapes result links from the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
}

// NewDuckDuckGo creates a DuckDuckGo provider. An empty endpoint uses the
// public HTML endpoint.
func NewDuckDuckGo(endpoint string) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoURL
	}
	return &DuckDuckGo{
		client:   &http.Client{Timeout: DefaultSearchTimeout},
		endpoint: endpoint,
	}
}

// Search returns up to maxResults organic result links.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", web.UserAgent)
	req.Header.Set("Accept-Language", web.AcceptLanguage)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: status %d", resp.StatusCode)
	}

	doc, err := xhtml.Parse(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse results: %w", err)
	}
	return parseDuckDuckGoResults(doc, maxResults), nil
}

// Name identifies the provider in logs.
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// parseDuckDuckGoResults collects result__a anchors in document order,
// unwrapping redirect links and skipping ads.
func parseDuckDuckGoResults(doc *xhtml.Node, maxResults int) []string {
	var urls []string
	seen := make(map[string]bool)

	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if len(urls) >= maxResults {
			return
		}
		if n.Type == xhtml.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			if link := resolveResultLink(attrValue(n, "href")); link != "" && !seen[link] {
				seen[link] = true
				urls = append(urls, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls
}

// resolveResultLink turns a DuckDuckGo href into the target URL.
// Redirects look like //duckduckgo.com/l/?uddg=<escaped target>.
func resolveResultLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		if u.Path == "/y.js" {
			return ""
		}
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		href = target
		if u, err = url.Parse(href); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}

func hasClass(n *xhtml.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attrValue(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
