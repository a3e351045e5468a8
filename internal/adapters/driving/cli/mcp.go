package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/owngpt/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions, retrieve stored context and index pages through owngpt.

Tools:     ask, retrieve, index_urls
Resources: owngpt://runs, owngpt://runs/{runId}

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead, e.g. for MCP Inspector.

Examples:
  # Stdio mode (default)
  owngpt mcp serve

  # HTTP mode
  owngpt mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "owngpt": {
        "command": "/path/to/owngpt",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	cleanup, err := loadPipeline(cmd.Context())
	defer cleanup()
	if err != nil {
		return err
	}

	ports := &mcp.Ports{
		Pipeline: pipelineService,
		History:  historyService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
