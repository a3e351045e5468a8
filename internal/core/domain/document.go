package domain

import (
	"errors"
	"strings"
	"time"
)

// ContextSeparator joins retrieved chunks into a single context string.
const ContextSeparator = "\n\n"

// Document is cleaned natural-language text from exactly one source URL.
type Document struct {
	// SourceURL is the page the text was extracted from.
	SourceURL string

	// Text is the extracted text with whitespace collapsed.
	Text string
}

// IsEmpty reports whether extraction produced no text.
func (d Document) IsEmpty() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Chunk is a bounded-length fragment of a document.
// The chunk and its source metadata travel together as one value.
type Chunk struct {
	// Content is the chunk text.
	Content string

	// Source is the originating URL.
	Source string

	// Position is the ordinal of the chunk within its document.
	Position int
}

// Record is a chunk plus its embedding as stored in the vector store.
// Records are append-only.
type Record struct {
	// ID is an opaque identifier assigned when the record is built.
	ID string

	// Chunk is the text and its source metadata.
	Chunk Chunk

	// Embedding is the vector produced by the indexing model.
	Embedding []float32

	// CreatedAt is when the record was indexed.
	CreatedAt time.Time
}

// RankedRecord is a stored record returned by a similarity search.
type RankedRecord struct {
	Record Record

	// Similarity is the cosine similarity to the query vector.
	Similarity float64

	// Rank is the zero-based position in the result list.
	Rank int
}

// RetrievedContext is the top-k records for a query, in rank order.
type RetrievedContext struct {
	Records []RankedRecord

	// Text is the chunk contents joined with ContextSeparator.
	Text string
}

// NewRetrievedContext builds a context from ranked records.
func NewRetrievedContext(records []RankedRecord) RetrievedContext {
	if len(records) == 0 {
		return RetrievedContext{}
	}
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = r.Record.Chunk.Content
	}
	return RetrievedContext{
		Records: records,
		Text:    strings.Join(parts, ContextSeparator),
	}
}

// Sources returns the distinct source URLs in rank order.
func (c RetrievedContext) Sources() []string {
	seen := make(map[string]bool, len(c.Records))
	var out []string
	for _, r := range c.Records {
		src := r.Record.Chunk.Source
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}

// IndexReport is the outcome of indexing one batch.
// Failures are counted, never swallowed.
type IndexReport struct {
	// Indexed is the number of records appended to the store.
	Indexed int

	// Failed is the number of chunks that could not be embedded or stored.
	Failed int

	// Err joins the causes of every failure.
	Err error
}

// Partial reports whether some but not all chunks were indexed.
func (r IndexReport) Partial() bool {
	return r.Indexed > 0 && r.Failed > 0
}

// Merge adds another report's counts and errors to this one.
func (r IndexReport) Merge(other IndexReport) IndexReport {
	return IndexReport{
		Indexed: r.Indexed + other.Indexed,
		Failed:  r.Failed + other.Failed,
		Err:     errors.Join(r.Err, other.Err),
	}
}
