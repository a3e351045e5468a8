package driving

import "github.com/custodia-labs/owngpt/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings with defaults applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses and stores a single dot-notation key.
	// Values are validated before anything is written.
	Set(key, value string) error

	// Value returns the effective value of a key, rendered as text.
	Value(key string) (string, error)

	// Keys returns every recognised settings key, sorted.
	Keys() []string

	// Path returns the location of the backing settings file.
	Path() string

	// Validate checks that current settings can start the pipeline.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
