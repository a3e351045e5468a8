package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestSearchProviderName_IsValid(t *testing.T) {
	assert.True(t, SearchProviderDuckDuckGo.IsValid())
	assert.True(t, SearchProviderGoogle.IsValid())
	assert.True(t, SearchProviderNone.IsValid())
	assert.False(t, SearchProviderName("bing").IsValid())
}

func TestStoreBackend_IsDurable(t *testing.T) {
	tests := []struct {
		backend StoreBackend
		durable bool
	}{
		{StoreBackendSQLite, true},
		{StoreBackendBolt, true},
		{StoreBackendQdrant, true},
		{StoreBackendMemory, false},
	}

	for _, tt := range tests {
		t.Run(tt.backend.String(), func(t *testing.T) {
			assert.True(t, tt.backend.IsValid())
			assert.Equal(t, tt.durable, tt.backend.IsDurable())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{
			name:     "ollama without key",
			settings: EmbeddingSettings{Provider: AIProviderOllama, Model: "all-minilm"},
			expected: true,
		},
		{
			name:     "openai without key",
			settings: EmbeddingSettings{Provider: AIProviderOpenAI},
			expected: false,
		},
		{
			name:     "openai with key",
			settings: EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"},
			expected: true,
		},
		{
			name:     "no provider",
			settings: EmbeddingSettings{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestChunkSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   ChunkSettings
		wantErr bool
	}{
		{name: "defaults", chunk: ChunkSettings{Size: 500, Overlap: 100}},
		{name: "zero overlap", chunk: ChunkSettings{Size: 10, Overlap: 0}},
		{name: "overlap equals size", chunk: ChunkSettings{Size: 10, Overlap: 10}, wantErr: true},
		{name: "overlap exceeds size", chunk: ChunkSettings{Size: 10, Overlap: 20}, wantErr: true},
		{name: "zero size", chunk: ChunkSettings{Size: 0, Overlap: 0}, wantErr: true},
		{name: "negative overlap", chunk: ChunkSettings{Size: 10, Overlap: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, SearchProviderDuckDuckGo, s.Search.Provider)
	assert.Equal(t, 2, s.Search.NumResults)
	assert.Equal(t, 10*time.Second, s.Fetch.Timeout)
	assert.Equal(t, 500, s.Chunk.Size)
	assert.Equal(t, 100, s.Chunk.Overlap)
	assert.Equal(t, 3, s.Retrieval.K)
	assert.Equal(t, AIProviderOllama, s.LLM.Provider)
	assert.Equal(t, "llama3.2", s.LLM.Model)
	assert.Equal(t, "all-minilm", s.Embedding.Model)
	assert.Equal(t, StoreBackendSQLite, s.Store.Backend)
	assert.Equal(t, "127.0.0.1:8000", s.Server.Addr)

	assert.NoError(t, s.Validate())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{name: "bad chunk overlap", mutate: func(s *AppSettings) { s.Chunk.Overlap = s.Chunk.Size }},
		{name: "negative k", mutate: func(s *AppSettings) { s.Retrieval.K = -1 }},
		{name: "zero timeout", mutate: func(s *AppSettings) { s.Fetch.Timeout = 0 }},
		{name: "zero concurrency", mutate: func(s *AppSettings) { s.Fetch.Concurrency = 0 }},
		{name: "negative results", mutate: func(s *AppSettings) { s.Search.NumResults = -2 }},
		{name: "unknown backend", mutate: func(s *AppSettings) { s.Store.Backend = "redis" }},
		{name: "unknown search provider", mutate: func(s *AppSettings) { s.Search.Provider = "bing" }},
		{name: "google without credentials", mutate: func(s *AppSettings) { s.Search.Provider = SearchProviderGoogle }},
		{name: "anthropic embeddings", mutate: func(s *AppSettings) {
			s.Embedding = EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}
		}},
		{name: "unconfigured embeddings", mutate: func(s *AppSettings) { s.Embedding = EmbeddingSettings{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidConfig)
		})
	}
}

func TestDefaultModels(t *testing.T) {
	assert.Equal(t, "llama3.2", DefaultLLMModels()[AIProviderOllama])
	assert.Equal(t, "text-embedding-3-small", DefaultEmbeddingModels()[AIProviderOpenAI])
	assert.Equal(t, 384, EmbeddingDimensions()["all-minilm"])
	assert.Len(t, AllEmbeddingProviders(), 2)
	assert.Len(t, AllLLMProviders(), 3)
}
