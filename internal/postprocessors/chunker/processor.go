// Package chunker provides a fixed-size, overlapping text chunker.
//
// Sizes are measured in runes so that multi-byte text never splits inside
// a character. The window advances by size-overlap runes and stops as soon
// as a window reaches the end of the text, so every chunk after the first
// begins with exactly overlap runes of its predecessor and the final chunk
// may be shorter than size.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits document text into fixed-size chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker with the given options.
// An overlap that is not smaller than the chunk size is a configuration
// error; it is reported here so it surfaces at startup.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	cfg := domain.ChunkSettings{Size: p.chunkSize, Overlap: p.overlap}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	return p, nil
}

// NewFromSettings creates a chunker from application settings.
func NewFromSettings(cfg domain.ChunkSettings) (*Processor, error) {
	return New(WithChunkSize(cfg.Size), WithOverlap(cfg.Overlap))
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Size returns the configured chunk size in runes.
func (p *Processor) Size() int {
	return p.chunkSize
}

// Overlap returns the configured overlap in runes.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits text into overlapping windows tagged with source.
func (p *Processor) Chunk(text, source string) []domain.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, n/step+1)

	for start, position := 0, 0; ; start, position = start+step, position+1 {
		end := min(start+p.chunkSize, n)

		chunks = append(chunks, domain.Chunk{
			Content:  string(runes[start:end]),
			Source:   source,
			Position: position,
		})

		if end == n {
			break
		}
	}

	return chunks
}
