// Package normalisers turns fetched page bodies into plain text.
//
// The html subpackage is the only format owngpt reads: it prefers the
// article or main element and falls back to the whole document.
package normalisers
