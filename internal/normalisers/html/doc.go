// Package html provides the Extractor implementation for web pages.
//
// Pages are parsed leniently with golang.org/x/net/html, so malformed
// markup degrades to whatever text the parser recovers instead of failing.
// The first main-content region (article, main, role="main", or the common
// div.content / div.article-body wrappers) is preferred; without one, all
// visible text is used. Scripts, styles and other non-visible subtrees are
// skipped and whitespace is collapsed to single spaces.
package html
