package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [url...]",
	Short: "Fetch pages and add them to the knowledge store",
	Long: `Fetches each URL, extracts its readable text, splits it into chunks and
stores their embeddings. No answer is generated.

Indexed pages are available to later questions, including ones asked with
--no-search.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cleanup, err := loadPipeline(cmd.Context())
	defer cleanup()
	if err != nil {
		return err
	}

	report, err := pipelineService.Index(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	fetched := len(report.Fetch.Succeeded())
	cmd.Printf("Fetched %d of %d pages.\n", fetched, report.Fetch.Len())
	for _, f := range report.Fetch.Failed() {
		cmd.Printf("  ! %s: %s\n", f.URL, f.Failure.String())
	}
	cmd.Printf("Indexed %d chunks", report.Index.Indexed)
	if report.Index.Failed > 0 {
		cmd.Printf(" (%d failed)", report.Index.Failed)
	}
	cmd.Println(".")
	return nil
}
