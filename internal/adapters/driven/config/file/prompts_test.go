package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

var testDefaults = map[string]string{
	driven.PromptAnswer: "Context: {context}\nQuery: {query}",
	driven.PromptSystem: "Be helpful.",
}

func newTestPromptStore(t *testing.T) (*PromptStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)
	return store, dir
}

func TestNewPromptStore_DoesNoIO(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	store, err := NewPromptStore(dir, testDefaults)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	store, dir := newTestPromptStore(t)

	_, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	for _, f := range []string{"answer.txt", "system.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, _ := newTestPromptStore(t)

	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, "Be helpful.", prompt)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	store, dir := newTestPromptStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("  Be terse.\n"), 0600))

	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, "Be terse.", prompt)
}

func TestPromptStore_Load_FallsBackWhenFileRemoved(t *testing.T) {
	store, dir := newTestPromptStore(t)
	_, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "system.txt")))

	prompt, err := store.Load(driven.PromptSystem)

	require.NoError(t, err)
	assert.Equal(t, "Be helpful.", prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, _ := newTestPromptStore(t)

	_, err := store.Load("nonexistent")

	assert.Error(t, err)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	store, dir := newTestPromptStore(t)
	first, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("Changed."), 0600))
	cached, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	assert.Equal(t, "Changed.", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte("mine {context} {query}"), 0600))
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, "mine {context} {query}", prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, _ := newTestPromptStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptAnswer)
			assert.NoError(t, err)
			store.Reload()
		}()
	}
	wg.Wait()
}

func TestPromptStore_Watch_ReloadsOnWrite(t *testing.T) {
	store, dir := newTestPromptStore(t)
	_, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan string, 10)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- store.Watch(ctx, func(name string) { reloaded <- name })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"), []byte("Hot reloaded."), 0600))

	select {
	case name := <-reloaded:
		assert.Equal(t, "system", name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for prompt reload")
	}

	prompt, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)
	assert.Equal(t, "Hot reloaded.", prompt)

	cancel()
	assert.NoError(t, <-watchErr)
}
