package driven

import "github.com/custodia-labs/owngpt/internal/core/domain"

// AIConfigValidator checks that provider settings reach a live service.
// Nil or unconfigured settings are not an error.
type AIConfigValidator interface {
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
	ValidateLLM(settings *domain.LLMSettings) error
}
