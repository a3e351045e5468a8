package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

// mockPipeline implements driving.Pipeline for CLI tests.
type mockPipeline struct {
	askFunc      func(ctx context.Context, query string, opts driving.AskOptions) (*domain.RunReport, error)
	indexFunc    func(ctx context.Context, urls []string) (*domain.RunReport, error)
	retrieveFunc func(ctx context.Context, query string, k int) (*domain.RetrievedContext, error)
}

func (m *mockPipeline) Ask(ctx context.Context, query string, opts driving.AskOptions) (*domain.RunReport, error) {
	if m.askFunc != nil {
		return m.askFunc(ctx, query, opts)
	}
	answer := "mock answer"
	if opts.OnFragment != nil {
		opts.OnFragment(answer)
	}
	return &domain.RunReport{
		ID:     "run-0001-abcd",
		Query:  query,
		State:  domain.StateDone,
		Answer: answer,
		Context: domain.NewRetrievedContext([]domain.RankedRecord{
			{Record: domain.Record{Chunk: domain.Chunk{Content: "ctx", Source: "https://example.com/a"}}, Similarity: 0.9},
		}),
	}, nil
}

func (m *mockPipeline) Index(ctx context.Context, urls []string) (*domain.RunReport, error) {
	if m.indexFunc != nil {
		return m.indexFunc(ctx, urls)
	}
	outcomes := make([]domain.FetchOutcome, len(urls))
	for i, u := range urls {
		outcomes[i] = domain.FetchOutcome{URL: u, Content: "<p>x</p>"}
	}
	return &domain.RunReport{
		State: domain.StateDone,
		Fetch: domain.FetchResult{Outcomes: outcomes},
		Index: domain.IndexReport{Indexed: len(urls)},
	}, nil
}

func (m *mockPipeline) Retrieve(ctx context.Context, query string, k int) (*domain.RetrievedContext, error) {
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, query, k)
	}
	rctx := domain.NewRetrievedContext([]domain.RankedRecord{
		{Record: domain.Record{Chunk: domain.Chunk{Content: "Gophers are the Go mascot.", Source: "https://go.dev"}}, Similarity: 0.95},
	})
	return &rctx, nil
}

// mockHistoryService implements driving.HistoryService for CLI tests.
type mockHistoryService struct {
	runs []domain.RunSummary
	err  error
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.RunSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.runs) > limit {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockHistoryService) Get(_ context.Context, id string) (*domain.RunSummary, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockSettingsService implements driving.SettingsService over a flat map.
type mockSettingsService struct {
	values      map[string]string
	validateErr error
	embedErr    error
	llmErr      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{values: map[string]string{
		"chunk.size":         "500",
		"embedding.api_key":  "",
		"embedding.model":    "all-minilm",
		"embedding.provider": "ollama",
		"llm.api_key":        "",
		"llm.model":          "llama3.2",
		"llm.provider":       "ollama",
		"search.api_key":     "",
		"search.engine_id":   "",
		"search.provider":    "duckduckgo",
		"server.addr":        domain.DefaultServerAddr,
	}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	return &s, nil
}

func (m *mockSettingsService) Save(*domain.AppSettings) error { return nil }

func (m *mockSettingsService) Set(key, value string) error {
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, key)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Value(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, key)
	}
	return v, nil
}

func (m *mockSettingsService) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) Path() string                    { return "/home/test/.owngpt/config.toml" }
func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.embedErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.llmErr }

// setupTestServices installs mock services and returns a restore func.
func setupTestServices() func() {
	oldPipeline := pipelineService
	oldHistory := historyService
	oldSettings := settingsService

	pipelineService = &mockPipeline{}
	historyService = &mockHistoryService{runs: []domain.RunSummary{
		{
			ID: "run-0001-abcd", Query: "what is go", State: domain.StateDone,
			URLs: 2, Fetched: 2, Indexed: 5, Retrieved: 3,
			StartedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			FinishedAt: time.Date(2025, 1, 2, 3, 4, 7, 0, time.UTC),
		},
	}}
	settingsService = newMockSettingsService()

	return func() {
		pipelineService = oldPipeline
		historyService = oldHistory
		settingsService = oldSettings
	}
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "owngpt", rootCmd.Use)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)

	c := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, c)
	assert.Equal(t, "", c.DefValue)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	want := []string{"ask", "index", "search", "history", "serve", "mcp", "config", "tui", "version"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, registered[name], "command %s should be registered", name)
	}
}

func TestPersistentPreRun_OpensSettingsFromFactory(t *testing.T) {
	oldSettings, oldFactory, oldDir := settingsService, settingsFactory, configDir
	defer func() {
		settingsService, settingsFactory, configDir = oldSettings, oldFactory, oldDir
	}()

	settingsService = nil
	var gotDir string
	SetSettingsFactory(func(dir string) (driving.SettingsService, error) {
		gotDir = dir
		return newMockSettingsService(), nil
	})

	out, err := execute(t, "--config", "/tmp/owngpt-test", "config", "get", "chunk.size")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/owngpt-test", gotDir)
	assert.Contains(t, out, "500")
}

func TestPersistentPreRun_FactoryError(t *testing.T) {
	oldSettings, oldFactory := settingsService, settingsFactory
	defer func() { settingsService, settingsFactory = oldSettings, oldFactory }()

	settingsService = nil
	SetSettingsFactory(func(string) (driving.SettingsService, error) {
		return nil, errors.New("permission denied")
	})

	_, err := execute(t, "config", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening config")
}

func TestLoadPipeline_BuildsAndClosesRuntime(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	oldLoader := runtimeLoader
	defer func() { runtimeLoader = oldLoader }()

	pipelineService = nil
	historyService = nil

	closed := 0
	var gotSettings domain.AppSettings
	SetRuntimeLoader(func(_ context.Context, _ string, s domain.AppSettings) (*Runtime, error) {
		gotSettings = s
		return &Runtime{
			Pipeline: &mockPipeline{},
			History:  &mockHistoryService{},
			Close:    func() error { closed++; return nil },
		}, nil
	})

	out, err := execute(t, "ask", "hello")

	require.NoError(t, err)
	assert.Contains(t, out, "mock answer")
	assert.Equal(t, 1, closed)
	assert.Equal(t, domain.DefaultChunkSize, gotSettings.Chunk.Size)
	assert.Nil(t, pipelineService, "runtime should be released after the command")
}

func TestLoadPipeline_LoaderError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	oldLoader := runtimeLoader
	defer func() { runtimeLoader = oldLoader }()

	pipelineService = nil
	SetRuntimeLoader(func(context.Context, string, domain.AppSettings) (*Runtime, error) {
		return nil, domain.ErrEmbeddingUnavailable
	})

	_, err := execute(t, "ask", "hello")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestLoadPipeline_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	oldLoader := runtimeLoader
	defer func() { runtimeLoader = oldLoader }()

	pipelineService = nil
	runtimeLoader = nil

	_, err := execute(t, "ask", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline not configured")
}

func TestSetVersion(t *testing.T) {
	old := version
	defer func() { version = old }()

	SetVersion("1.2.3")

	assert.Equal(t, "1.2.3", version)
}
