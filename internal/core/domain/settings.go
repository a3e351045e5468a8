package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// SearchProviderName identifies the web search backend that produces seed URLs.
type SearchProviderName string

// Available search providers.
const (
	// SearchProviderDuckDuckGo scrapes the DuckDuckGo HTML endpoint. No key needed.
	SearchProviderDuckDuckGo SearchProviderName = "duckduckgo"

	// SearchProviderGoogle uses the Google Custom Search JSON API.
	SearchProviderGoogle SearchProviderName = "google"

	// SearchProviderNone disables web search; answers use stored knowledge only.
	SearchProviderNone SearchProviderName = "none"
)

// IsValid returns true if the provider is recognised.
func (p SearchProviderName) IsValid() bool {
	switch p {
	case SearchProviderDuckDuckGo, SearchProviderGoogle, SearchProviderNone:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p SearchProviderName) String() string {
	return string(p)
}

// StoreBackend identifies the vector store implementation.
type StoreBackend string

// Available vector store backends.
const (
	// StoreBackendSQLite persists records in a local SQLite database.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendBolt persists records in a local bbolt file.
	StoreBackendBolt StoreBackend = "bolt"

	// StoreBackendQdrant stores records in a Qdrant collection over gRPC.
	StoreBackendQdrant StoreBackend = "qdrant"

	// StoreBackendMemory keeps records in process memory only.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendBolt, StoreBackendQdrant, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// IsDurable reports whether records survive a process restart.
func (b StoreBackend) IsDurable() bool {
	return b != StoreBackendMemory
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	// Indexing and retrieval always use the same model.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// SearchSettings configures the web search step.
type SearchSettings struct {
	Provider SearchProviderName

	// NumResults is how many seed URLs to request per query.
	NumResults int

	// APIKey and EngineID are the Google Custom Search credentials.
	APIKey   string
	EngineID string

	// RatePerSecond caps provider calls.
	RatePerSecond float64
}

// FetchSettings configures page fetching.
type FetchSettings struct {
	// Timeout bounds each individual fetch.
	Timeout time.Duration

	// Concurrency is the worker pool size for the fan-out.
	Concurrency int

	// MaxBytes caps the body read per page.
	MaxBytes int64

	// PerHostRate caps requests per second to a single host.
	PerHostRate float64
}

// ChunkSettings configures the chunker. Units are runes.
type ChunkSettings struct {
	Size    int
	Overlap int
}

// Validate checks that the chunk window can advance.
func (c ChunkSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)",
			ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// RetrievalSettings configures context retrieval.
type RetrievalSettings struct {
	// K is the number of records to retrieve. Zero yields an empty context.
	K int
}

// StoreSettings configures the vector store.
type StoreSettings struct {
	Backend StoreBackend

	// Path is the data directory for local backends.
	Path string

	// QdrantAddr is host:port of the Qdrant gRPC endpoint.
	QdrantAddr string

	// Collection is the Qdrant collection name.
	Collection string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// TracingSettings configures OpenTelemetry export.
type TracingSettings struct {
	// Endpoint is the OTLP gRPC endpoint. Empty disables export.
	Endpoint string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search    SearchSettings
	Fetch     FetchSettings
	Chunk     ChunkSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Store     StoreSettings
	Server    ServerSettings
	Tracing   TracingSettings
}

// Default values.
const (
	DefaultNumResults   = 2
	DefaultFetchTimeout = 10 * time.Second
	DefaultConcurrency  = 4
	DefaultMaxBytes     = 2 << 20
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
	DefaultRetrievalK   = 3
	DefaultServerAddr   = "127.0.0.1:8000"
	DefaultQdrantAddr   = "localhost:6334"
	DefaultCollection   = "owngpt"
)

// DefaultAppSettings returns settings with sensible defaults.
// Store.Path is left empty; callers resolve it relative to the config directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Provider:      SearchProviderDuckDuckGo,
			NumResults:    DefaultNumResults,
			RatePerSecond: 1,
		},
		Fetch: FetchSettings{
			Timeout:     DefaultFetchTimeout,
			Concurrency: DefaultConcurrency,
			MaxBytes:    DefaultMaxBytes,
			PerHostRate: 2,
		},
		Chunk: ChunkSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			K: DefaultRetrievalK,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		Store: StoreSettings{
			Backend:    StoreBackendSQLite,
			QdrantAddr: DefaultQdrantAddr,
			Collection: DefaultCollection,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// Validate checks settings that must be correct before the pipeline starts.
func (s AppSettings) Validate() error {
	if err := s.Chunk.Validate(); err != nil {
		return err
	}
	if s.Search.NumResults < 0 {
		return fmt.Errorf("%w: search.num_results must not be negative", ErrInvalidConfig)
	}
	if !s.Search.Provider.IsValid() {
		return fmt.Errorf("%w: unknown search provider %q", ErrInvalidConfig, s.Search.Provider)
	}
	if s.Search.Provider == SearchProviderGoogle && (s.Search.APIKey == "" || s.Search.EngineID == "") {
		return fmt.Errorf("%w: google search needs search.api_key and search.engine_id", ErrInvalidConfig)
	}
	if s.Fetch.Timeout <= 0 {
		return fmt.Errorf("%w: fetch.timeout must be positive", ErrInvalidConfig)
	}
	if s.Fetch.Concurrency <= 0 {
		return fmt.Errorf("%w: fetch.concurrency must be positive", ErrInvalidConfig)
	}
	if s.Retrieval.K < 0 {
		return fmt.Errorf("%w: retrieval.k must not be negative", ErrInvalidConfig)
	}
	if !s.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, s.Store.Backend)
	}
	if !s.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured", ErrInvalidConfig, s.Embedding.Provider)
	}
	if s.Embedding.Provider == AIProviderAnthropic {
		return fmt.Errorf("%w: anthropic does not support embeddings", ErrInvalidConfig)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
