package driven

import "github.com/custodia-labs/owngpt/internal/core/domain"

// Chunker splits document text into overlapping windows.
// Implementations are pure: identical input yields identical output.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits text from source into chunks. Empty text yields none.
	Chunk(text, source string) []domain.Chunk
}
