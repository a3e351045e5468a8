package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySearchProvider   = "search.provider"
	keySearchNumResults = "search.num_results"
	keySearchAPIKey     = "search.api_key"
	keySearchEngineID   = "search.engine_id"
	keySearchRate       = "search.rate_per_second"
	keyFetchTimeout     = "fetch.timeout"
	keyFetchConcurrency = "fetch.concurrency"
	keyFetchMaxBytes    = "fetch.max_bytes"
	keyFetchPerHostRate = "fetch.per_host_rate"
	keyChunkSize        = "chunk.size"
	keyChunkOverlap     = "chunk.overlap"
	keyRetrievalK       = "retrieval.k"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyStoreBackend     = "store.backend"
	keyStorePath        = "store.path"
	keyStoreQdrantAddr  = "store.qdrant_addr"
	keyStoreCollection  = "store.collection"
	keyServerAddr       = "server.addr"
	keyTracingEndpoint  = "tracing.endpoint"
)

// secretKeys are masked by Value.
var secretKeys = map[string]bool{
	keySearchAPIKey: true,
	keyEmbedAPIKey:  true,
	keyLLMAPIKey:    true,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// Missing or unparsable values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			Provider:      s.getSearchProvider(d.Search.Provider),
			NumResults:    s.getInt(keySearchNumResults, d.Search.NumResults),
			APIKey:        s.configStore.GetString(keySearchAPIKey),
			EngineID:      s.configStore.GetString(keySearchEngineID),
			RatePerSecond: s.getFloat(keySearchRate, d.Search.RatePerSecond),
		},
		Fetch: domain.FetchSettings{
			Timeout:     s.getDuration(keyFetchTimeout, d.Fetch.Timeout),
			Concurrency: s.getInt(keyFetchConcurrency, d.Fetch.Concurrency),
			MaxBytes:    int64(s.getInt(keyFetchMaxBytes, int(d.Fetch.MaxBytes))),
			PerHostRate: s.getFloat(keyFetchPerHostRate, d.Fetch.PerHostRate),
		},
		Chunk: domain.ChunkSettings{
			Size:    s.getInt(keyChunkSize, d.Chunk.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunk.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			K: s.getInt(keyRetrievalK, d.Retrieval.K),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - adapters know their endpoint
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Store: domain.StoreSettings{
			Backend:    s.getStoreBackend(d.Store.Backend),
			Path:       s.configStore.GetString(keyStorePath),
			QdrantAddr: s.getString(keyStoreQdrantAddr, d.Store.QdrantAddr),
			Collection: s.getString(keyStoreCollection, d.Store.Collection),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
		Tracing: domain.TracingSettings{
			Endpoint: s.configStore.GetString(keyTracingEndpoint),
		},
	}

	return settings, nil
}

// Save persists application settings.
// Empty API keys are not written, so a key set elsewhere is never erased.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keySearchProvider, settings.Search.Provider.String()},
		{keySearchNumResults, settings.Search.NumResults},
		{keySearchEngineID, settings.Search.EngineID},
		{keySearchRate, settings.Search.RatePerSecond},
		{keyFetchTimeout, settings.Fetch.Timeout.String()},
		{keyFetchConcurrency, settings.Fetch.Concurrency},
		{keyFetchMaxBytes, settings.Fetch.MaxBytes},
		{keyFetchPerHostRate, settings.Fetch.PerHostRate},
		{keyChunkSize, settings.Chunk.Size},
		{keyChunkOverlap, settings.Chunk.Overlap},
		{keyRetrievalK, settings.Retrieval.K},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStorePath, settings.Store.Path},
		{keyStoreQdrantAddr, settings.Store.QdrantAddr},
		{keyStoreCollection, settings.Store.Collection},
		{keyServerAddr, settings.Server.Addr},
		{keyTracingEndpoint, settings.Tracing.Endpoint},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key, value string
	}{
		{keySearchAPIKey, settings.Search.APIKey},
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set parses value for key, checks it, and stores it.
//
//nolint:gocyclo // One case per key.
func (s *SettingsService) Set(key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)

	settings, err := s.Get()
	if err != nil {
		return err
	}

	var stored any = value
	switch key {
	case keySearchProvider:
		p := domain.SearchProviderName(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown search provider %q", domain.ErrInvalidConfig, value)
		}
	case keyEmbedProvider:
		p := domain.AIProvider(value)
		if !isEmbeddingProvider(p) {
			return fmt.Errorf("%w: %q cannot provide embeddings", domain.ErrInvalidConfig, value)
		}
	case keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown llm provider %q", domain.ErrInvalidConfig, value)
		}
	case keyStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfig, value)
		}
	case keyFetchTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration like 10s", domain.ErrInvalidConfig, key)
		}
		stored = d.String()
	case keySearchNumResults, keyRetrievalK, keyFetchMaxBytes:
		n, err := parseNonNegative(key, value)
		if err != nil {
			return err
		}
		stored = n
	case keyFetchConcurrency:
		n, err := parseNonNegative(key, value)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfig, key)
		}
		stored = n
	case keyChunkSize, keyChunkOverlap:
		n, err := parseNonNegative(key, value)
		if err != nil {
			return err
		}
		chunk := settings.Chunk
		if key == keyChunkSize {
			chunk.Size = n
		} else {
			chunk.Overlap = n
		}
		if err := chunk.Validate(); err != nil {
			return err
		}
		stored = n
	case keySearchRate, keyFetchPerHostRate:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidConfig, key)
		}
		stored = f
	case keySearchAPIKey, keySearchEngineID,
		keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
		keyStorePath, keyStoreQdrantAddr, keyStoreCollection,
		keyServerAddr, keyTracingEndpoint:
		// Free-form strings.
	default:
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, key)
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Value returns the effective value of key. API keys are masked.
func (s *SettingsService) Value(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}
	values := settingsValues(settings)
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, key)
	}
	if secretKeys[key] && v != "" {
		return maskSecret(v), nil
	}
	return v, nil
}

// Keys returns every recognised key, sorted.
func (s *SettingsService) Keys() []string {
	defaults := domain.DefaultAppSettings()
	values := settingsValues(&defaults)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns where the config store keeps settings.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Validate checks that the current settings can start the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// settingsValues renders every key of settings as text.
func settingsValues(s *domain.AppSettings) map[string]string {
	return map[string]string{
		keySearchProvider:   s.Search.Provider.String(),
		keySearchNumResults: strconv.Itoa(s.Search.NumResults),
		keySearchAPIKey:     s.Search.APIKey,
		keySearchEngineID:   s.Search.EngineID,
		keySearchRate:       formatFloat(s.Search.RatePerSecond),
		keyFetchTimeout:     s.Fetch.Timeout.String(),
		keyFetchConcurrency: strconv.Itoa(s.Fetch.Concurrency),
		keyFetchMaxBytes:    strconv.FormatInt(s.Fetch.MaxBytes, 10),
		keyFetchPerHostRate: formatFloat(s.Fetch.PerHostRate),
		keyChunkSize:        strconv.Itoa(s.Chunk.Size),
		keyChunkOverlap:     strconv.Itoa(s.Chunk.Overlap),
		keyRetrievalK:       strconv.Itoa(s.Retrieval.K),
		keyEmbedProvider:    s.Embedding.Provider.String(),
		keyEmbedModel:       s.Embedding.Model,
		keyEmbedBaseURL:     s.Embedding.BaseURL,
		keyEmbedAPIKey:      s.Embedding.APIKey,
		keyLLMProvider:      s.LLM.Provider.String(),
		keyLLMModel:         s.LLM.Model,
		keyLLMBaseURL:       s.LLM.BaseURL,
		keyLLMAPIKey:        s.LLM.APIKey,
		keyStoreBackend:     s.Store.Backend.String(),
		keyStorePath:        s.Store.Path,
		keyStoreQdrantAddr:  s.Store.QdrantAddr,
		keyStoreCollection:  s.Store.Collection,
		keyServerAddr:       s.Server.Addr,
		keyTracingEndpoint:  s.Tracing.Endpoint,
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt treats a stored zero as a real value; only a missing key
// yields the default.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getSearchProvider(defaultVal domain.SearchProviderName) domain.SearchProviderName {
	p := domain.SearchProviderName(s.configStore.GetString(keySearchProvider))
	if !p.IsValid() {
		return defaultVal
	}
	return p
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStoreBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	b := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !b.IsValid() {
		return defaultVal
	}
	return b
}

func isEmbeddingProvider(p domain.AIProvider) bool {
	for _, candidate := range domain.AllEmbeddingProviders() {
		if candidate == p {
			return true
		}
	}
	return false
}

func parseNonNegative(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidConfig, key)
	}
	return n, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func maskSecret(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
