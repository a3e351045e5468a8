package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change owngpt settings.

Settings live in config.toml in the config directory and use dot-notation
keys such as embedding.provider or chunk.size. API keys may also come from
the environment (OWNGPT_OPENAI_API_KEY, OWNGPT_ANTHROPIC_API_KEY,
OWNGPT_GOOGLE_API_KEY, OWNGPT_GOOGLE_CX) or a .env file.`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting with its effective value",
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Validates and stores one setting. Invalid values are rejected and
nothing is written.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the location of config.toml",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and ping the AI providers",
	RunE:  runConfigCheck,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long:  `Walks through choosing a search provider, an embedding provider and an LLM.`,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		value, err := settingsService.Value(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("%-24s %s\n", key, value)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	value, err := settingsService.Value(args[0])
	if err != nil {
		return err
	}
	cmd.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	value, err := settingsService.Value(args[0])
	if err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println(settingsService.Path())
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Settings:  FAILED: %v\n", err)
		return err
	}
	cmd.Println("Settings:  OK")

	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("Embedding: FAILED: %v\n", err)
		return fmt.Errorf("embedding provider unavailable: %w", err)
	}
	cmd.Println("Embedding: OK")

	// A missing LLM only degrades answers.
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("LLM:       WARNING: %v\n", err)
		cmd.Println("Answers will fall back to an apology until the LLM is reachable.")
		return nil
	}
	cmd.Println("LLM:       OK")
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("owngpt Setup Wizard")
	cmd.Println("===================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Web Search")
	cmd.Println("------------------")
	if err := configureSearch(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureAIProvider(cmd, reader, "embedding",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels()); err != nil {
		return err
	}
	cmd.Print("Validating embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	cmd.Println()

	cmd.Println("Step 3: LLM Provider")
	cmd.Println("--------------------")
	if err := configureAIProvider(cmd, reader, "llm",
		domain.AllLLMProviders(), domain.DefaultLLMModels()); err != nil {
		return err
	}
	cmd.Print("Validating LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("WARNING: %v\n", err)
	} else {
		cmd.Println("OK")
	}
	cmd.Println()

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

func configureSearch(cmd *cobra.Command, reader *bufio.Reader) error {
	providers := []domain.SearchProviderName{
		domain.SearchProviderDuckDuckGo,
		domain.SearchProviderGoogle,
		domain.SearchProviderNone,
	}
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p)
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	if err := settingsService.Set("search.provider", selected.String()); err != nil {
		return fmt.Errorf("failed to set search provider: %w", err)
	}

	if selected == domain.SearchProviderGoogle {
		cmd.Print("Enter Google API key: ")
		apiKey := readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
		cmd.Print("Enter search engine ID (cx): ")
		cx := readLine(reader)
		if apiKey == "" || cx == "" {
			return errors.New("google search needs an API key and an engine ID")
		}
		if err := settingsService.Set("search.api_key", apiKey); err != nil {
			return err
		}
		if err := settingsService.Set("search.engine_id", cx); err != nil {
			return err
		}
	}
	cmd.Printf("Search provider set to: %s\n\n", selected)
	return nil
}

// configureAIProvider prompts for provider, model and API key under prefix
// ("embedding" or "llm").
func configureAIProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	prefix string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) error {
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := defaults[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if err := settingsService.Set(prefix+".provider", selected.String()); err != nil {
		return fmt.Errorf("failed to set %s provider: %w", prefix, err)
	}
	if err := settingsService.Set(prefix+".model", model); err != nil {
		return fmt.Errorf("failed to set %s model: %w", prefix, err)
	}

	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey := readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
		if err := settingsService.Set(prefix+".api_key", apiKey); err != nil {
			return fmt.Errorf("failed to set %s API key: %w", prefix, err)
		}
		cmd.Printf("API key stored: %s\n", maskAPIKey(apiKey))
	}

	cmd.Printf("%s provider configured: %s (%s)\n", prefix, selected.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo when in is a terminal.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
