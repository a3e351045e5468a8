package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

type mockPipeline struct {
	askFunc func(ctx context.Context, query string, opts driving.AskOptions) (*domain.RunReport, error)
}

func (m *mockPipeline) Ask(ctx context.Context, query string, opts driving.AskOptions) (*domain.RunReport, error) {
	if m.askFunc != nil {
		return m.askFunc(ctx, query, opts)
	}
	return &domain.RunReport{Query: query, Answer: "answer to " + query, State: domain.StateDone}, nil
}

func (m *mockPipeline) Index(_ context.Context, _ []string) (*domain.RunReport, error) {
	return &domain.RunReport{}, nil
}

func (m *mockPipeline) Retrieve(_ context.Context, _ string, _ int) (*domain.RetrievedContext, error) {
	return &domain.RetrievedContext{}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := NewServer(&mockPipeline{}, Config{}).Handler()

	rec := do(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAsk_ReturnsAnswer(t *testing.T) {
	var gotQuery string
	p := &mockPipeline{askFunc: func(_ context.Context, query string, _ driving.AskOptions) (*domain.RunReport, error) {
		gotQuery = query
		return &domain.RunReport{Answer: "Paris"}, nil
	}}
	h := NewServer(p, Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/ask", `{"query":"  capital of France?  "}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Paris"}`, rec.Body.String())
	assert.Equal(t, "capital of France?", gotQuery)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestAsk_DegradedAnswerIsStillOK(t *testing.T) {
	p := &mockPipeline{askFunc: func(context.Context, string, driving.AskOptions) (*domain.RunReport, error) {
		return &domain.RunReport{Answer: "Sorry.", Degraded: true}, nil
	}}
	h := NewServer(p, Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/ask", `{"query":"q"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Sorry.", resp.Response)
}

func TestAsk_BadRequests(t *testing.T) {
	h := NewServer(&mockPipeline{}, Config{}).Handler()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing query", body: `{}`, want: ErrQueryRequired},
		{name: "blank query", body: `{"query":"   "}`, want: ErrQueryRequired},
		{name: "empty body", body: ``, want: ErrQueryRequired},
		{name: "invalid json", body: `{"query":`, want: "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/ask", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestAsk_PipelineFailure(t *testing.T) {
	p := &mockPipeline{askFunc: func(context.Context, string, driving.AskOptions) (*domain.RunReport, error) {
		return &domain.RunReport{State: domain.StateFailed}, errors.New("run failed at fetching: context canceled")
	}}
	h := NewServer(p, Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/ask", `{"query":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "context canceled")
}

func TestAsk_MethodNotAllowed(t *testing.T) {
	h := NewServer(&mockPipeline{}, Config{}).Handler()

	rec := do(t, h, http.MethodGet, "/ask", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestCORSPreflight(t *testing.T) {
	h := NewServer(&mockPipeline{}, Config{}).Handler()

	rec := do(t, h, http.MethodOptions, "/ask", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestServe_GracefulShutdown(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := &mockPipeline{askFunc: func(context.Context, string, driving.AskOptions) (*domain.RunReport, error) {
		close(started)
		<-release
		return &domain.RunReport{Answer: "late"}, nil
	}}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(p, Config{ShutdownTimeout: 5 * time.Second})
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	type result struct {
		status int
		body   string
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		resp, err := http.Post(fmt.Sprintf("http://%s/ask", ln.Addr()), "application/json",
			strings.NewReader(`{"query":"q"}`))
		if err != nil {
			resCh <- result{err: err}
			return
		}
		defer resp.Body.Close()
		var body AskResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		resCh <- result{status: resp.StatusCode, body: body.Response, err: err}
	}()

	<-started
	cancel()
	close(release)

	res := <-resCh
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "late", res.body)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
