// Package sqlite provides the default persistent knowledge index and run history.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file backs two ports:
//
//   - VectorStore: append-only records (chunk, source, embedding)
//   - RunStore: pipeline run summaries
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Search
//
// Similarity search is brute force: every stored vector is scored by cosine
// similarity. This keeps the store dependency-free and is fast enough for a
// personal knowledge base of tens of thousands of chunks.
//
// # Data Location
//
// By default, the database is stored at ~/.owngpt/data/owngpt.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
