package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/owngpt/internal/adapters/driving/httpapi"
)

func TestServeCmd_Flags(t *testing.T) {
	addr := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, "a", addr.Shorthand)
	assert.Equal(t, "", addr.DefValue)

	timeout := serveCmd.Flags().Lookup("ask-timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, httpapi.DefaultAskTimeout.String(), timeout.DefValue)
}

func TestServeCmd_LongListsEndpoints(t *testing.T) {
	assert.Contains(t, serveCmd.Long, "POST /ask")
	assert.Contains(t, serveCmd.Long, "GET  /health")
}

func TestMCPServeCmd_PortFlag(t *testing.T) {
	port := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "0", port.DefValue)
}

func TestMCPServeCmd_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"mcp", "serve"})

	require.NoError(t, err)
	assert.Equal(t, mcpServeCmd, cmd)
	assert.Contains(t, cmd.Long, "ask, retrieve, index_urls")
}
