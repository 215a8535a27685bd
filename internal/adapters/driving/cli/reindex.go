package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

var (
	reindexLists int
	reindexApply bool
	reindexJSON  bool
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Tune or rebuild the ANN index",
	Long: `Plans or runs ivfflat index maintenance. The target lists value is
round(sqrt(corpus size)) clamped to [50, 8192], or --lists when given.
A matching index is rebuilt in place; a diverging one is replaced by a
concurrent build-and-swap so reads keep working throughout.`,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().IntVar(&reindexLists, "lists", 0, "explicit lists value (0 = heuristic)")
	reindexCmd.Flags().BoolVar(&reindexApply, "apply", false, "execute the transition instead of planning")
	reindexCmd.Flags().BoolVar(&reindexJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if reindexService == nil {
		return errors.New("reindex service not configured")
	}

	req := driving.ReindexRequest{Lists: reindexLists}

	if !reindexApply {
		plan, err := reindexService.Plan(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("reindex plan failed: %w", err)
		}
		if reindexJSON {
			return printJSON(cmd, plan)
		}
		cmd.Printf("Corpus: %d embedding(s). Index lists: current %d, desired %d.\n",
			plan.Rows, plan.CurrentLists, plan.DesiredLists)
		cmd.Printf("Planned action: %s (then analyze).\n", plan.Action)
		cmd.Println("Re-run with --apply to execute.")
		return nil
	}

	result, err := reindexService.Apply(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	if reindexJSON {
		return printJSON(cmd, result)
	}
	cmd.Printf("Executed %s: lists %d -> %d, statistics refreshed.\n",
		result.Action, result.CurrentLists, result.DesiredLists)
	return nil
}
