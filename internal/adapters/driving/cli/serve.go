package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/owngpt/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/owngpt/internal/logger"
)

var (
	serveAddr       string
	serveAskTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts an HTTP server exposing the answer pipeline.

Endpoints:
  POST /ask     {"query": "..."}  ->  {"response": "..."}
  GET  /health  ->  {"status": "healthy"}

Prompt templates are reloaded when their files change. The server shuts
down gracefully on interrupt, letting in-flight questions finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from server.addr)")
	serveCmd.Flags().DurationVar(&serveAskTimeout, "ask-timeout", httpapi.DefaultAskTimeout, "maximum time for one question")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cleanup, err := loadPipeline(cmd.Context())
	defer cleanup()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = currentSettings().Server.Addr
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if promptWatcher != nil {
		watch := promptWatcher
		go func() {
			if err := watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("prompt watcher stopped: %v", err)
			}
		}()
	}

	server := httpapi.NewServer(pipelineService, httpapi.Config{
		Addr:       addr,
		AskTimeout: serveAskTimeout,
	})
	cmd.Printf("owngpt API listening on http://%s\n", addr)
	return server.Run(ctx)
}
