// Package domain defines the core entities of the owngpt answer pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FetchOutcome / FetchResult: what the fan-out fetch produced per URL
//   - Document: cleaned text bound to exactly one source URL
//   - Chunk: a bounded slice of a document, carrying its source
//   - Record: a chunk plus its embedding, as persisted in the vector store
//   - RetrievedContext: the ranked records assembled for one query
//   - RunReport: everything one pipeline run did, stage by stage
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
