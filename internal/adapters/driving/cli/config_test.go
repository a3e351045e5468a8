package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range configCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "get", "set", "path", "check", "init"} {
		assert.True(t, names[want], "config %s should be registered", want)
	}
}

func TestConfigList(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "chunk.size")
	assert.Contains(t, out, "500")
	assert.Contains(t, out, "(not set)")
}

func TestConfigDefaultRunsList(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config")

	require.NoError(t, err)
	assert.Contains(t, out, "embedding.provider")
}

func TestConfigPath(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "path")

	require.NoError(t, err)
	assert.Equal(t, "/home/test/.owngpt/config.toml\n", out)
}

func TestConfigPath_NoService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	_, err := execute(t, "config", "path")

	assert.Error(t, err)
}

func TestConfigGet(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "get", "server.addr")

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8000\n", out)
}

func TestConfigGet_UnknownKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "config", "get", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key")
}

func TestConfigSet(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "set", "chunk.size", "800")

	require.NoError(t, err)
	assert.Contains(t, out, "chunk.size = 800")
	v, _ := settingsService.Value("chunk.size")
	assert.Equal(t, "800", v)
}

func TestConfigSet_Rejected(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "config", "set", "nope", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set nope")
}

func TestConfigCheck(t *testing.T) {
	t.Run("all ok", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "config", "check")

		require.NoError(t, err)
		assert.Contains(t, out, "Settings:  OK")
		assert.Contains(t, out, "Embedding: OK")
		assert.Contains(t, out, "LLM:       OK")
	})

	t.Run("embedding down is an error", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		settingsService.(*mockSettingsService).embedErr = errors.New("connection refused")

		out, err := execute(t, "config", "check")

		require.Error(t, err)
		assert.Contains(t, out, "Embedding: FAILED")
	})

	t.Run("llm down is a warning", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		settingsService.(*mockSettingsService).llmErr = errors.New("connection refused")

		out, err := execute(t, "config", "check")

		require.NoError(t, err)
		assert.Contains(t, out, "LLM:       WARNING")
	})
}

func TestConfigInit_Wizard(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	input := strings.Join([]string{
		"1", // duckduckgo
		"1", // ollama embeddings
		"",  // default embedding model
		"3", // anthropic
		"",  // default model
		"sk-ant-abcdef123456",
	}, "\n") + "\n"
	rootCmd.SetIn(strings.NewReader(input))
	defer rootCmd.SetIn(nil)

	out, err := execute(t, "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration Complete!")
	assert.Contains(t, out, "API key stored: sk-a...3456")

	get := func(key string) string {
		v, err := settingsService.Value(key)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "duckduckgo", get("search.provider"))
	assert.Equal(t, "ollama", get("embedding.provider"))
	assert.Equal(t, "all-minilm", get("embedding.model"))
	assert.Equal(t, "anthropic", get("llm.provider"))
	assert.Equal(t, "claude-3-5-sonnet-latest", get("llm.model"))
	assert.Equal(t, "sk-ant-abcdef123456", get("llm.api_key"))
}

func TestConfigInit_GoogleNeedsCredentials(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("2\n\n\n"))
	defer rootCmd.SetIn(nil)

	_, err := execute(t, "config", "init")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key and an engine ID")
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 1, parseChoice("", 3, 1))
	assert.Equal(t, 2, parseChoice("2", 3, 1))
	assert.Equal(t, 1, parseChoice("9", 3, 1))
	assert.Equal(t, 1, parseChoice("x", 3, 1))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-1...wxyz", maskAPIKey("sk-123456wxyz"))
}
