package ai

import (
	"context"
	"io"
	"time"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by building a throwaway client
// and pinging it. Unconfigured settings pass.
type ConfigValidator struct {
	// Timeout bounds each ping. Zero uses pingTimeout.
	Timeout time.Duration
}

// NewConfigValidator returns a validator with the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{Timeout: pingTimeout}
}

func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	return v.ping(svc, svc.Ping)
}

func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	return v.ping(svc, svc.Ping)
}

func (v *ConfigValidator) ping(c io.Closer, ping func(context.Context) error) error {
	defer c.Close()

	timeout := v.Timeout
	if timeout <= 0 {
		timeout = pingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return ping(ctx)
}

// ValidateEmbeddingConfig pings the embedding provider described by settings.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	return NewConfigValidator().ValidateEmbedding(settings)
}

// ValidateLLMConfig pings the LLM provider described by settings.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	return NewConfigValidator().ValidateLLM(settings)
}
