package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestApplyEnv_FillsBlankKeys(t *testing.T) {
	s := domain.DefaultAppSettings()
	s.Embedding.Provider = domain.AIProviderOpenAI
	s.LLM.Provider = domain.AIProviderAnthropic
	s.Search.Provider = domain.SearchProviderGoogle

	ApplyEnv(&s, lookupFrom(map[string]string{
		"OPENAI_API_KEY":           "sk-openai",
		"OWNGPT_ANTHROPIC_API_KEY": "sk-ant",
		"OWNGPT_GOOGLE_API_KEY":    "g-key",
		"OWNGPT_GOOGLE_CX":         "cx-1",
		"OWNGPT_OTLP_ENDPOINT":     "localhost:4317",
	}))

	assert.Equal(t, "sk-openai", s.Embedding.APIKey)
	assert.Equal(t, "sk-ant", s.LLM.APIKey)
	assert.Equal(t, "g-key", s.Search.APIKey)
	assert.Equal(t, "cx-1", s.Search.EngineID)
	assert.Equal(t, "localhost:4317", s.Tracing.Endpoint)
}

func TestApplyEnv_PrefixedVariableWins(t *testing.T) {
	s := domain.DefaultAppSettings()
	s.LLM.Provider = domain.AIProviderOpenAI

	ApplyEnv(&s, lookupFrom(map[string]string{
		"OWNGPT_OPENAI_API_KEY": "mine",
		"OPENAI_API_KEY":        "shared",
	}))

	assert.Equal(t, "mine", s.LLM.APIKey)
}

func TestApplyEnv_KeepsConfiguredValues(t *testing.T) {
	s := domain.DefaultAppSettings()
	s.LLM.Provider = domain.AIProviderOpenAI
	s.LLM.APIKey = "from-config"

	ApplyEnv(&s, lookupFrom(map[string]string{"OPENAI_API_KEY": "from-env"}))

	assert.Equal(t, "from-config", s.LLM.APIKey)
}

func TestApplyEnv_IgnoresUnusedProviders(t *testing.T) {
	s := domain.DefaultAppSettings()
	s.Embedding.Provider = domain.AIProviderOllama
	s.Search.Provider = domain.SearchProviderDuckDuckGo

	ApplyEnv(&s, lookupFrom(map[string]string{
		"OPENAI_API_KEY":        "sk",
		"OWNGPT_GOOGLE_API_KEY": "g",
	}))

	assert.Empty(t, s.Embedding.APIKey)
	assert.Empty(t, s.Search.APIKey)
}
