// Package cli implements the owngpt command line.
//
// Commands reach the core through package-level driving ports. main wires a
// settings factory and a runtime loader; commands that need the pipeline
// build it on first use, so config and version work without any provider
// running.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
	"github.com/custodia-labs/owngpt/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Runtime is a wired pipeline handed to the CLI by the runtime loader.
type Runtime struct {
	Pipeline driving.Pipeline
	History  driving.HistoryService

	// WatchPrompts blocks, reloading prompt templates, until ctx ends.
	// Nil disables hot reload.
	WatchPrompts func(ctx context.Context) error

	// Close releases the runtime. May be nil.
	Close func() error
}

// RuntimeLoader builds a Runtime from settings.
type RuntimeLoader func(ctx context.Context, configDir string, settings domain.AppSettings) (*Runtime, error)

// SettingsFactory opens the settings service for a config directory.
// An empty directory selects the default location.
type SettingsFactory func(configDir string) (driving.SettingsService, error)

var (
	verbose   bool
	configDir string

	settingsFactory SettingsFactory
	runtimeLoader   RuntimeLoader

	settingsService driving.SettingsService
	pipelineService driving.Pipeline
	historyService  driving.HistoryService
	promptWatcher   func(ctx context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "owngpt",
	Short: "Answer questions from the web with your own models",
	Long: `owngpt answers questions by searching the web, reading the pages it
finds, storing what it reads in a local vector store and asking a language
model to answer from the most relevant passages.

Knowledge accumulates across runs: every page read is kept, so later
questions can be answered from stored context alone (see --no-search).`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.owngpt)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsFactory sets how the settings service is opened.
func SetSettingsFactory(f SettingsFactory) {
	settingsFactory = f
}

// SetRuntimeLoader sets how the pipeline is built.
func SetRuntimeLoader(l RuntimeLoader) {
	runtimeLoader = l
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func persistentPreRun(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if settingsService != nil || settingsFactory == nil {
		return nil
	}
	svc, err := settingsFactory(configDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService = svc
	return nil
}

// loadPipeline makes sure pipelineService is set, building the runtime on
// first use. The returned cleanup must always be called.
func loadPipeline(ctx context.Context) (func(), error) {
	noop := func() {}
	if pipelineService != nil {
		return noop, nil
	}
	if settingsService == nil {
		return noop, errors.New("settings service not configured")
	}
	if runtimeLoader == nil {
		return noop, errors.New("pipeline not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return noop, fmt.Errorf("reading settings: %w", err)
	}

	rt, err := runtimeLoader(ctx, configDir, *settings)
	if err != nil {
		return noop, err
	}

	pipelineService = rt.Pipeline
	historyService = rt.History
	promptWatcher = rt.WatchPrompts

	return func() {
		if rt.Close != nil {
			if err := rt.Close(); err != nil {
				logger.Warn("closing pipeline: %v", err)
			}
		}
		pipelineService = nil
		historyService = nil
		promptWatcher = nil
	}, nil
}

// currentSettings returns settings, or defaults when no service is wired.
func currentSettings() domain.AppSettings {
	if settingsService == nil {
		return domain.DefaultAppSettings()
	}
	s, err := settingsService.Get()
	if err != nil || s == nil {
		return domain.DefaultAppSettings()
	}
	return *s
}
