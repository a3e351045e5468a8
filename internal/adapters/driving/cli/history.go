package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	Long:  `Lists recent pipeline runs, newest first, with their final state and counts.`,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of runs")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output runs as JSON")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	cleanup, err := loadPipeline(cmd.Context())
	defer cleanup()
	if err != nil {
		return err
	}
	if historyService == nil {
		return errors.New("history not available")
	}

	runs, err := historyService.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if historyJSON {
		return writeJSON(cmd.OutOrStdout(), runs)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}
	for i := range runs {
		printRunLine(cmd, &runs[i])
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cleanup, err := loadPipeline(cmd.Context())
	defer cleanup()
	if err != nil {
		return err
	}
	if historyService == nil {
		return errors.New("history not available")
	}

	run, err := historyService.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("run %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("getting run: %w", err)
	}

	cmd.Printf("Run:       %s\n", run.ID)
	cmd.Printf("Query:     %s\n", run.Query)
	cmd.Printf("State:     %s\n", run.State)
	if run.State == domain.StateFailed {
		cmd.Printf("Failed at: %s\n", run.FailedStage)
		cmd.Printf("Error:     %s\n", run.Error)
	}
	cmd.Printf("URLs:      %d\n", run.URLs)
	cmd.Printf("Fetched:   %d (%d failed)\n", run.Fetched, run.FetchFails)
	cmd.Printf("Indexed:   %d (%d failed)\n", run.Indexed, run.IndexFails)
	cmd.Printf("Retrieved: %d\n", run.Retrieved)
	cmd.Printf("Degraded:  %t\n", run.Degraded)
	cmd.Printf("Started:   %s\n", run.StartedAt.Format(time.RFC3339))
	cmd.Printf("Took:      %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return nil
}

func printRunLine(cmd *cobra.Command, r *domain.RunSummary) {
	status := r.State.String()
	if r.Degraded {
		status += " (degraded)"
	}
	cmd.Printf("%s  %s  %-18s %s\n", shortRunID(r.ID), r.StartedAt.Format("2006-01-02 15:04"), status, r.Query)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
