package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

var (
	embedModelID   string
	embedFilename  string
	embedDevice    string
	embedDim       int
	embedBatch     int
	embedMax       int64
	embedForce     bool
	embedApply     bool
	embedPlanLimit int
	embedJSON      bool
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed chunks that have no vector yet",
	Long: `Plans or runs the embedding job. Without --apply the job only reports
how many chunks it would embed and a sample of their IDs. With --apply
it loads the model and writes one embedding per chunk under the model
tag; re-running is safe.`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVar(&embedModelID, "model-id", "", "embedding model (default from config)")
	embedCmd.Flags().StringVar(&embedFilename, "onnx-filename", "", "ONNX file within the model repo")
	embedCmd.Flags().StringVar(&embedDevice, "device", "", "inference device: cpu or cuda")
	embedCmd.Flags().IntVar(&embedDim, "dim", 0, "expected embedding dimension (default from config)")
	embedCmd.Flags().IntVar(&embedBatch, "batch", 0, "chunks per inference call (default from config)")
	embedCmd.Flags().Int64Var(&embedMax, "max", 0, "cap on chunks processed (0 = no cap)")
	embedCmd.Flags().BoolVar(&embedForce, "force", false, "re-embed every chunk")
	embedCmd.Flags().BoolVar(&embedApply, "apply", false, "execute the job instead of planning")
	embedCmd.Flags().IntVar(&embedPlanLimit, "plan-limit", domain.DefaultPlanLimit, "sample chunk IDs reported by a plan")
	embedCmd.Flags().BoolVar(&embedJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	if embedService == nil {
		return errors.New("embed service not configured")
	}

	enc, err := encoderConfig(embedModelID, embedFilename, embedDevice)
	if err != nil {
		return err
	}

	req := domain.EmbedRequest{
		Encoder:   enc,
		Dim:       embedDim,
		Batch:     embedBatch,
		Max:       embedMax,
		Force:     embedForce,
		PlanLimit: embedPlanLimit,
	}
	if req.Dim <= 0 {
		req.Dim = cfg.Encoder.Dim
	}
	if req.Batch <= 0 {
		req.Batch = cfg.Encoder.Batch
	}

	if !embedApply {
		plan, err := embedService.Plan(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("embed plan failed: %w", err)
		}
		if embedJSON {
			return printJSON(cmd, plan)
		}
		cmd.Printf("Would embed %d of %d candidate chunk(s) with %s (dim %d).\n",
			plan.Planned, plan.Candidates, plan.ModelTag, plan.Dim)
		if len(plan.SampleChunkIDs) > 0 {
			cmd.Printf("Sample chunk IDs: %v\n", plan.SampleChunkIDs)
		}
		cmd.Println("Re-run with --apply to execute.")
		return nil
	}

	result, err := embedService.Apply(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("embed failed: %w", err)
	}
	if embedJSON {
		return printJSON(cmd, result)
	}
	cmd.Printf("Embedded %d chunk(s).\n", result.TotalEmbedded)
	return nil
}
