package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

const snippetRunes = 160

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed knowledge",
	Long: `Returns the stored chunks most similar to the query, ranked by cosine
similarity of their embeddings. Nothing is fetched and no answer is
generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultRetrievalK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchHit is the JSON view of one retrieved chunk.
type searchHit struct {
	Rank       int     `json:"rank"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cleanup, err := loadPipeline(cmd.Context())
	defer cleanup()
	if err != nil {
		return err
	}

	rctx, err := pipelineService.Retrieve(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, rctx.Records)
	}
	outputSearchTable(cmd, rctx.Records)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, records []domain.RankedRecord) error {
	hits := make([]searchHit, len(records))
	for i, r := range records {
		hits[i] = searchHit{
			Rank:       r.Rank + 1,
			Source:     r.Record.Chunk.Source,
			Similarity: r.Similarity,
			Content:    r.Record.Chunk.Content,
		}
	}
	return writeJSON(cmd.OutOrStdout(), hits)
}

func outputSearchTable(cmd *cobra.Command, records []domain.RankedRecord) {
	if len(records) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for _, r := range records {
		// [N] source (similarity)
		cmd.Printf("  [%d] %s (%.2f)\n", r.Rank+1, r.Record.Chunk.Source, r.Similarity)
		if s := snippet(r.Record.Chunk.Content, snippetRunes); s != "" {
			cmd.Printf("      %s\n", s)
		}
		cmd.Println()
	}
}

// snippet collapses whitespace and truncates to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
