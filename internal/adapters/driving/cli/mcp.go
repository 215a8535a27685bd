package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/adapters/driving/mcp"
	"github.com/quarry-labs/quarry/internal/core/domain"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search
the corpus and plan (or, with the right config policy, run) the
embedding and index-maintenance jobs.

By default the server communicates over stdio using JSON-RPC. Use
--port to serve HTTP instead.

Examples:
  # Stdio mode (for desktop AI assistants)
  quarry mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  quarry mcp serve --port 8080

Write access is plan-only unless mcp.allow_embed_apply or
mcp.allow_reindex_apply is set in the config file.`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	enc, err := encoderConfig("", "", "")
	if err != nil {
		return err
	}

	ports := &mcp.Ports{
		Query:   queryService,
		Embed:   embedService,
		Reindex: reindexService,
	}
	policy := mcp.Policy{
		AllowEmbedApply:   cfg.MCP.AllowEmbedApply,
		AllowReindexApply: cfg.MCP.AllowReindexApply,
		MaxConcurrent:     cfg.MCP.MaxConcurrent,
	}
	defaults := mcp.Defaults{
		Encoder: domain.EncoderConfig{
			ModelID:       enc.ModelID,
			ModelFilename: enc.ModelFilename,
			Device:        enc.Device,
		},
		Dim:   cfg.Encoder.Dim,
		Batch: cfg.Encoder.Batch,
	}

	server, err := mcp.NewServer(ports, policy, defaults)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
