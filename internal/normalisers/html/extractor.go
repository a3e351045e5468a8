package html

import (
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor turns raw HTML into clean text.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// skipped elements never contribute visible text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Object:   true,
}

// contentClasses are div classes treated as main-content wrappers.
var contentClasses = []string{"content", "article-body"}

// Extract returns the main text of raw with whitespace collapsed.
func (e *Extractor) Extract(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	root, err := xhtml.Parse(strings.NewReader(raw))
	if err != nil {
		// The parser only fails on reader errors; a strings.Reader has none.
		return ""
	}

	if region := findContentRegion(root); region != nil {
		if text := visibleText(region); text != "" {
			return text
		}
	}

	return visibleText(root)
}

// findContentRegion returns the first main-content element in document order.
func findContentRegion(root *xhtml.Node) *xhtml.Node {
	var found *xhtml.Node
	var traverse func(*xhtml.Node)
	traverse = func(n *xhtml.Node) {
		if found != nil {
			return
		}
		if n.Type == xhtml.ElementNode {
			if skipped[n.DataAtom] {
				return
			}
			if isContentRegion(n) {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(root)

	return found
}

func isContentRegion(n *xhtml.Node) bool {
	switch n.DataAtom {
	case atom.Article, atom.Main:
		return true
	case atom.Div:
		for _, class := range strings.Fields(attr(n, "class")) {
			for _, want := range contentClasses {
				if class == want {
					return true
				}
			}
		}
	}
	return attr(n, "role") == "main"
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// visibleText returns the collapsed text of n's visible subtree.
func visibleText(n *xhtml.Node) string {
	return collapse(textOf(n))
}

// textOf joins every text node under n with a space separator.
func textOf(n *xhtml.Node) string {
	var b strings.Builder
	var traverse func(*xhtml.Node)
	traverse = func(node *xhtml.Node) {
		switch node.Type {
		case xhtml.TextNode:
			b.WriteString(node.Data)
			b.WriteByte(' ')
			return
		case xhtml.CommentNode, xhtml.DoctypeNode:
			return
		case xhtml.ElementNode:
			if skipped[node.DataAtom] || hasAttr(node, "hidden") {
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)

	return b.String()
}

func hasAttr(n *xhtml.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// collapse replaces every whitespace run with one space and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
