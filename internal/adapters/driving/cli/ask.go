package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

var (
	askURLs     []string
	askNoSearch bool
	askK        int
	askJSON     bool
)

var progressStyle = lipgloss.NewStyle().Faint(true)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question",
	Long: `Searches the web for the question, reads and indexes the pages found,
then streams an answer grounded in the most similar stored passages.

Use --url to read specific pages instead of searching, or --no-search to
answer from previously indexed knowledge only.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askURLs, "url", "u", nil, "read these pages instead of searching (repeatable)")
	askCmd.Flags().BoolVar(&askNoSearch, "no-search", false, "answer from stored knowledge only")
	askCmd.Flags().IntVarP(&askK, "k", "k", 0, "number of context chunks (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the run report as JSON")
	rootCmd.AddCommand(askCmd)
}

// askResult is the JSON view of an ask run.
type askResult struct {
	RunID    string   `json:"run_id"`
	Query    string   `json:"query"`
	Answer   string   `json:"answer"`
	Degraded bool     `json:"degraded"`
	Sources  []string `json:"sources"`
	Fetched  int      `json:"fetched"`
	Indexed  int      `json:"indexed"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("question is required")
	}

	cleanup, err := loadPipeline(cmd.Context())
	defer cleanup()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := driving.AskOptions{
		URLs:     askURLs,
		NoSearch: askNoSearch,
		K:        askK,
	}
	if !askJSON {
		opts.OnFragment = func(s string) { fmt.Fprint(out, s) }
		if isTerminal(os.Stderr) {
			opts.OnState = func(s domain.State) {
				if !s.IsTerminal() {
					fmt.Fprintln(os.Stderr, progressStyle.Render(s.Description()))
				}
			}
		}
	}

	report, err := pipelineService.Ask(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return writeJSON(out, askResult{
			RunID:    report.ID,
			Query:    report.Query,
			Answer:   report.Answer,
			Degraded: report.Degraded,
			Sources:  reportSources(report.Context),
			Fetched:  len(report.Fetch.Succeeded()),
			Indexed:  report.Index.Indexed,
		})
	}

	fmt.Fprintln(out)
	if sources := reportSources(report.Context); len(sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		for _, s := range sources {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	return nil
}

// reportSources lists distinct context sources in rank order.
func reportSources(rctx domain.RetrievedContext) []string {
	seen := make(map[string]bool)
	sources := []string{}
	for _, r := range rctx.Records {
		src := r.Record.Chunk.Source
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	return sources
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
