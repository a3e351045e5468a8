package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockFetcher implements driven.Fetcher for testing.
// Pages maps URLs to bodies; failures maps URLs to failure causes.
type mockFetcher struct {
	pages    map[string]string
	failures map[string]domain.FailureCause
	delay    time.Duration
	onFetch  func(url string)

	mu       sync.Mutex
	calls    map[string]int
	inFlight int32
	maxSeen  int32
}

func newMockFetcher(pages map[string]string) *mockFetcher {
	return &mockFetcher{
		pages:    pages,
		failures: map[string]domain.FailureCause{},
		calls:    map[string]int{},
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, url string, _ time.Duration) domain.FetchOutcome {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&m.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&m.maxSeen, seen, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls[url]++
	m.mu.Unlock()

	if m.onFetch != nil {
		m.onFetch(url)
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return domain.FetchOutcome{URL: url, Failure: &domain.FetchFailure{
				URL: url, Cause: domain.FailureTimeout, Err: ctx.Err(),
			}}
		}
	}

	if cause, ok := m.failures[url]; ok {
		f := &domain.FetchFailure{URL: url, Cause: cause}
		if cause == domain.FailureHTTP {
			f.StatusCode = 404
		}
		return domain.FetchOutcome{URL: url, Failure: f}
	}
	body, ok := m.pages[url]
	if !ok {
		return domain.FetchOutcome{URL: url, Failure: &domain.FetchFailure{URL: url, Cause: domain.FailureConnection}}
	}
	return domain.FetchOutcome{URL: url, Content: body}
}

func (m *mockFetcher) callCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

func (m *mockFetcher) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// mockEmbedder implements driven.EmbeddingService for testing.
// Vectors are letter frequencies, so identical texts have similarity 1.
type mockEmbedder struct {
	batchErr error
	failOn   string // Embed fails for texts containing this
	dims     int

	embedCalls atomic.Int32
	batchCalls atomic.Int32
}

const letterDims = 26

func letterVector(text string) []float32 {
	vec := make([]float32, letterDims)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.embedCalls.Add(1)
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("embedding failed")
	}
	return letterVector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if m.failOn != "" && strings.Contains(t, m.failOn) {
			return nil, errors.New("batch contains a bad text")
		}
		out[i] = letterVector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims != 0 {
		return m.dims
	}
	return letterDims
}

func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	fragments []string
	err       error // returned after all fragments are sent
	// afterFragments runs once the fragments are sent; a non-nil result
	// replaces err.
	afterFragments func(ctx context.Context) error

	mu       sync.Mutex
	messages []driven.ChatMessage
	calls    int
}

func (m *mockLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var b strings.Builder
	err := m.ChatStream(ctx, messages, opts, func(f string) error {
		b.WriteString(f)
		return nil
	})
	return b.String(), err
}

func (m *mockLLM) ChatStream(
	ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions, onFragment func(string) error,
) error {
	m.mu.Lock()
	m.messages = messages
	m.calls++
	m.mu.Unlock()

	for _, f := range m.fragments {
		if err := onFragment(f); err != nil {
			return err
		}
	}
	if m.afterFragments != nil {
		if err := m.afterFragments(ctx); err != nil {
			return err
		}
	}
	return m.err
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return ""
	}
	return m.messages[len(m.messages)-1].Content
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockSearchProvider implements driven.SearchProvider for testing.
type mockSearchProvider struct {
	urls  []string
	err   error
	calls atomic.Int32
}

func (m *mockSearchProvider) Search(_ context.Context, _ string, maxResults int) ([]string, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if maxResults < len(m.urls) {
		return m.urls[:maxResults], nil
	}
	return m.urls, nil
}

func (m *mockSearchProvider) Name() string { return "mock" }

// passthroughExtractor implements driven.Extractor by returning the body unchanged.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(raw string) string { return strings.TrimSpace(raw) }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// failingVectorStore implements driven.VectorStore with a failing Add.
type failingVectorStore struct {
	addErr error
}

func (f *failingVectorStore) Add(_ context.Context, _ []domain.Record) error { return f.addErr }
func (f *failingVectorStore) Search(_ context.Context, _ []float32, _ int) ([]domain.RankedRecord, error) {
	return nil, f.addErr
}
func (f *failingVectorStore) Count(_ context.Context) (int, error) { return 0, nil }
func (f *failingVectorStore) Close() error                         { return nil }

// failingRunStore implements driven.RunStore and fails every write.
type failingRunStore struct{}

func (failingRunStore) SaveRun(_ context.Context, _ domain.RunSummary) error {
	return errors.New("disk full")
}
func (failingRunStore) ListRuns(_ context.Context, _ int) ([]domain.RunSummary, error) {
	return nil, errors.New("disk full")
}
func (failingRunStore) GetRun(_ context.Context, _ string) (*domain.RunSummary, error) {
	return nil, errors.New("disk full")
}

// Compile-time interface checks.
var (
	_ driven.Fetcher          = (*mockFetcher)(nil)
	_ driven.EmbeddingService = (*mockEmbedder)(nil)
	_ driven.LLMService       = (*mockLLM)(nil)
	_ driven.SearchProvider   = (*mockSearchProvider)(nil)
	_ driven.Extractor        = passthroughExtractor{}
	_ driven.PromptStore      = (*mockPromptStore)(nil)
	_ driven.VectorStore      = (*failingVectorStore)(nil)
	_ driven.RunStore         = failingRunStore{}
)
