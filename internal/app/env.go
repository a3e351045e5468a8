package app

import (
	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// Environment variables that supply credentials when config.toml leaves
// them blank. The first non-empty variable in each list wins.
var envKeys = map[string][]string{
	"openai":    {"OWNGPT_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"anthropic": {"OWNGPT_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
	"google":    {"OWNGPT_GOOGLE_API_KEY"},
	"google_cx": {"OWNGPT_GOOGLE_CX"},
	"tracing":   {"OWNGPT_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// ApplyEnv fills blank credentials in s from the environment.
// Values already present in s are never overwritten.
func ApplyEnv(s *domain.AppSettings, lookup func(string) (string, bool)) {
	first := func(name string) string {
		for _, key := range envKeys[name] {
			if v, ok := lookup(key); ok && v != "" {
				return v
			}
		}
		return ""
	}
	fill := func(dst *string, name string) {
		if *dst == "" {
			*dst = first(name)
		}
	}

	if key := providerEnv(s.Embedding.Provider); key != "" {
		fill(&s.Embedding.APIKey, key)
	}
	if key := providerEnv(s.LLM.Provider); key != "" {
		fill(&s.LLM.APIKey, key)
	}
	if s.Search.Provider == domain.SearchProviderGoogle {
		fill(&s.Search.APIKey, "google")
		fill(&s.Search.EngineID, "google_cx")
	}
	fill(&s.Tracing.Endpoint, "tracing")
}

func providerEnv(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return "openai"
	case domain.AIProviderAnthropic:
		return "anthropic"
	default:
		return ""
	}
}
