package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

var (
	queryTopN        int64
	queryTopK        int
	queryDocCap      int
	queryProbes      int
	queryFeed        int64
	querySince       string
	queryShowContext bool
	queryJSON        bool
	queryModelID     string
	queryFilename    string
	queryDevice      string
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Search the corpus",
	Long: `Embeds the question with the configured bi-encoder and returns the
closest chunks by cosine distance, deduplicated per document.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int64Var(&queryTopN, "top-n", domain.DefaultTopN, "ANN candidate pool size")
	queryCmd.Flags().IntVarP(&queryTopK, "topk", "k", domain.DefaultTopK, "number of results")
	queryCmd.Flags().IntVar(&queryDocCap, "doc-cap", domain.DefaultDocCap, "maximum results per document")
	queryCmd.Flags().IntVar(&queryProbes, "probes", 0, "ivfflat probe override (0 = derive from the index)")
	queryCmd.Flags().Int64Var(&queryFeed, "feed", 0, "restrict to one source feed")
	queryCmd.Flags().StringVar(&querySince, "since", "", "freshness window: 7d, YYYY-MM-DD or RFC3339")
	queryCmd.Flags().BoolVar(&queryShowContext, "show-context", false, "print full chunk text per result")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryCmd.Flags().StringVar(&queryModelID, "model-id", "", "embedding model (default from config)")
	queryCmd.Flags().StringVar(&queryFilename, "onnx-filename", "", "ONNX file within the model repo")
	queryCmd.Flags().StringVar(&queryDevice, "device", "", "inference device: cpu or cuda")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	enc, err := encoderConfig(queryModelID, queryFilename, queryDevice)
	if err != nil {
		return err
	}

	req := domain.QueryRequest{
		Query:          args[0],
		TopN:           queryTopN,
		TopK:           queryTopK,
		DocCap:         queryDocCap,
		Probes:         queryProbes,
		FeedID:         queryFeed,
		Since:          domain.ParseWindow(querySince, time.Now()),
		IncludePreview: true,
		IncludeText:    queryShowContext,
		Encoder:        enc,
	}

	outcome, err := queryService.Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, outcome)
	}
	return outputQueryText(cmd, outcome)
}

func outputQueryText(cmd *cobra.Command, outcome domain.QueryOutcome) error {
	if len(outcome.Rows) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	if outcome.Probes > 0 {
		cmd.Printf("Results (probes=%d):\n\n", outcome.Probes)
	} else {
		cmd.Println("Results:")
		cmd.Println()
	}
	for _, row := range outcome.Rows {
		title := row.Title
		if title == "" {
			title = fmt.Sprintf("doc %d", row.DocID)
		}
		cmd.Printf("  [%d] %s (distance %.4f, chunk %d)\n", row.Rank, title, row.Distance, row.ChunkID)
		if row.Preview != "" {
			cmd.Printf("      %s\n", row.Preview)
		}
		if row.Text != "" {
			cmd.Println()
			cmd.Println(row.Text)
		}
		cmd.Println()
	}
	return nil
}
