// Package ai builds the embedding and LLM adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/owngpt/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/owngpt/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/owngpt/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/owngpt/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/owngpt/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult holds the AI services shared by one process.
// The indexer and the retriever must both use EmbeddingService.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // nil when the LLM is unreachable; answers degrade.
	PromptStore      *file.PromptStore // User-customisable prompt templates.
	Warnings         []string          // Non-fatal issues.
}

// Options controls Init.
type Options struct {
	// PromptDir overrides the prompt directory (default ~/.owngpt/prompts).
	PromptDir string

	// Prompts are the built-in templates written on first use.
	Prompts map[string]string

	// SkipPing creates services without checking connectivity.
	SkipPing bool
}

// Init creates the embedding service, LLM service and prompt store.
// An unusable embedding service is fatal because nothing can be indexed
// or retrieved without it. An unusable LLM is recorded as a warning.
func Init(settings domain.AppSettings, opts Options) (*InitResult, error) {
	result := &InitResult{}

	prompts, err := file.NewPromptStore(opts.PromptDir, opts.Prompts)
	if err != nil {
		return nil, fmt.Errorf("prompt store: %w", err)
	}
	result.PromptStore = prompts

	if opts.SkipPing {
		result.EmbeddingService, err = CreateEmbeddingService(&settings.Embedding)
	} else {
		result.EmbeddingService, err = CreateAndValidateEmbeddingService(&settings.Embedding)
	}
	if err != nil {
		return nil, err
	}
	if result.EmbeddingService == nil {
		return nil, fmt.Errorf("%w: provider %q is not configured. Run 'owngpt config set embedding.provider ollama' to fix",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	var llm driven.LLMService
	if opts.SkipPing {
		llm, err = CreateLLMService(&settings.LLM)
	} else {
		llm, err = CreateAndValidateLLMService(&settings.LLM)
	}
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("LLM unavailable, answers will degrade: %v", err)
	case llm == nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("LLM provider %q is not configured", settings.LLM.Provider))
	default:
		result.LLMService = llm
	}

	return result, nil
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.LLMService != nil {
		errs = append(errs, r.LLMService.Close())
	}
	return errors.Join(errs...)
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'owngpt config list' to check embedding.*",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'owngpt config list' to check embedding.*",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'owngpt config list' to check llm.*",
			domain.ErrLLMUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'owngpt config list' to check llm.*",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	// Unknown models learn their dimension from the first response.
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}
