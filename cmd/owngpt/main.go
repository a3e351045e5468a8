// Command owngpt answers questions from web pages using local or hosted
// language models.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/ai"
	"github.com/custodia-labs/owngpt/internal/adapters/driven/config/file"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/cli"
	"github.com/custodia-labs/owngpt/internal/app"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
	"github.com/custodia-labs/owngpt/internal/core/services"
	"github.com/custodia-labs/owngpt/internal/logger"
	"github.com/custodia-labs/owngpt/internal/observability"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetSettingsFactory(openSettings)
	cli.SetRuntimeLoader(loadRuntime)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func openSettings(configDir string) (driving.SettingsService, error) {
	loadDotEnv(configDir)

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

func loadRuntime(ctx context.Context, configDir string, settings domain.AppSettings) (*cli.Runtime, error) {
	app.ApplyEnv(&settings, os.LookupEnv)

	tcfg := observability.DefaultTracingConfig()
	tcfg.ServiceVersion = version
	tcfg.OTLPEndpoint = settings.Tracing.Endpoint
	tracing, err := observability.InitTracing(ctx, tcfg)
	if err != nil {
		logger.Warn("tracing disabled: %v", err)
		tracing = nil
	}

	var promptDir string
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}

	a, err := app.Build(ctx, settings, app.Options{PromptDir: promptDir})
	if err != nil {
		shutdownTracing(tracing)
		return nil, err
	}

	return &cli.Runtime{
		Pipeline:     a.Pipeline,
		History:      a.History,
		WatchPrompts: a.WatchPrompts,
		Close: func() error {
			err := a.Close()
			shutdownTracing(tracing)
			return err
		},
	}, nil
}

// loadDotEnv reads .env from the working directory, then from the config
// directory. Variables already set in the environment are kept.
func loadDotEnv(configDir string) {
	candidates := []string{".env"}
	if configDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configDir = filepath.Join(home, file.DirName)
		}
	}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, ".env"))
	}

	for _, path := range candidates {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("reading %s: %v", path, err)
		}
	}
}

func shutdownTracing(tp *observability.TracerProvider) {
	if tp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		logger.Debug("tracing shutdown: %v", err)
	}
}
