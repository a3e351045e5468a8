package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

func TestConfigValidator_UnconfiguredPasses(t *testing.T) {
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(nil))
	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Model: "all-minilm"}))
	assert.NoError(t, v.ValidateLLM(nil))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Model: "llama3.2"}))
}

func TestConfigValidator_PingsProvider(t *testing.T) {
	ok := newOllamaServer(t, http.StatusOK)
	down := newOllamaServer(t, http.StatusServiceUnavailable)
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, Model: "all-minilm", BaseURL: ok.URL,
	}))
	assert.Error(t, v.ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: down.URL,
	}))
}

func TestConfigValidator_Timeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer slow.Close()
	defer close(release)

	v := &ConfigValidator{Timeout: 50 * time.Millisecond}
	start := time.Now()

	err := v.ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: slow.URL,
	})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
