// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to run:
//
//   - Fetcher: Retrieves raw page content for one URL
//   - Extractor: Turns raw HTML into clean text
//   - Chunker: Splits text into overlapping windows
//   - EmbeddingService: Embeds chunks and queries with one model
//   - VectorStore: Append-only record storage with similarity search
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SearchProvider: Produces seed URLs. Without it, answers use stored knowledge only.
//   - LLMService: Generates answers. Without it, every answer is the apology message.
//   - PromptStore: Customisable prompt templates. Without it, built-in prompts are used.
//   - RunStore: Run history. Without it, runs are not recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
