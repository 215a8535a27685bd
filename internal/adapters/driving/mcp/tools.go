package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

// planOnlyNote explains a degraded apply to the calling agent.
const planOnlyNote = "apply is not permitted by server policy; returning the plan instead"

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query  string `json:"query" jsonschema:"the question to search the corpus for"`
	TopN   int64  `json:"top_n,omitempty" jsonschema:"ANN candidate pool size (default 100)"`
	TopK   int    `json:"topk,omitempty" jsonschema:"number of results to return (default 6)"`
	DocCap int    `json:"doc_cap,omitempty" jsonschema:"maximum results per document (default 2)"`
	Probes int    `json:"probes,omitempty" jsonschema:"ivfflat probe override, 0 derives from the index"`
	FeedID int64  `json:"feed_id,omitempty" jsonschema:"restrict to one source feed"`
	Since  string `json:"since,omitempty" jsonschema:"freshness window: 7d, YYYY-MM-DD or RFC3339"`
	Text   bool   `json:"include_text,omitempty" jsonschema:"include full chunk text per result"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Rows   []domain.ResultRow `json:"rows"`
	Count  int                `json:"count"`
	Probes int                `json:"probes"`
}

// EmbedInput is the input schema for the embed tool.
type EmbedInput struct {
	Apply bool  `json:"apply,omitempty" jsonschema:"execute the job instead of planning (requires policy permission)"`
	Force bool  `json:"force,omitempty" jsonschema:"re-embed every chunk, not only missing ones"`
	Max   int64 `json:"max,omitempty" jsonschema:"cap on chunks processed, 0 for no cap"`
}

// EmbedOutput is the output schema for the embed tool.
type EmbedOutput struct {
	Applied bool                `json:"applied"`
	Plan    *domain.EmbedPlan   `json:"plan,omitempty"`
	Result  *domain.EmbedResult `json:"result,omitempty"`
	Note    string              `json:"note,omitempty"`
}

// ReindexInput is the input schema for the reindex tool.
type ReindexInput struct {
	Apply bool `json:"apply,omitempty" jsonschema:"execute the transition instead of planning (requires policy permission)"`
	Lists int  `json:"lists,omitempty" jsonschema:"explicit lists value, 0 uses the corpus-size heuristic"`
}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	Applied bool                  `json:"applied"`
	Plan    *domain.ReindexPlan   `json:"plan,omitempty"`
	Result  *domain.ReindexResult `json:"result,omitempty"`
	Note    string                `json:"note,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Search the corpus and return ranked, per-document-deduplicated chunks",
	}, s.handleQuery)

	if s.ports.Embed != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "embed",
			Description: "Plan or run the embedding job over chunks missing a vector",
		}, s.handleEmbed)
	}
	if s.ports.Reindex != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reindex",
			Description: "Plan or run ANN index maintenance (lists heuristic, rebuild or swap)",
		}, s.handleReindex)
	}
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	defer release()

	req := domain.QueryRequest{
		Query:          input.Query,
		TopN:           input.TopN,
		TopK:           input.TopK,
		DocCap:         input.DocCap,
		Probes:         input.Probes,
		FeedID:         input.FeedID,
		Since:          domain.ParseWindow(input.Since, time.Now()),
		IncludePreview: true,
		IncludeText:    input.Text,
		Encoder:        s.defaults.Encoder,
	}
	if req.DocCap == 0 {
		req.DocCap = domain.DefaultDocCap
	}

	outcome, err := s.ports.Query.Run(ctx, req)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	return nil, QueryOutput{
		Rows:   outcome.Rows,
		Count:  len(outcome.Rows),
		Probes: outcome.Probes,
	}, nil
}

// handleEmbed handles the embed tool invocation. Apply requests degrade
// to plans when the policy forbids writes.
func (s *Server) handleEmbed(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EmbedInput,
) (*mcp.CallToolResult, EmbedOutput, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, EmbedOutput{}, err
	}
	defer release()

	req := domain.EmbedRequest{
		Encoder: s.defaults.Encoder,
		Dim:     s.defaults.Dim,
		Batch:   s.defaults.Batch,
		Max:     input.Max,
		Force:   input.Force,
	}

	if input.Apply && s.policy.AllowEmbedApply {
		result, err := s.ports.Embed.Apply(ctx, req)
		if err != nil {
			return nil, EmbedOutput{}, err
		}
		return nil, EmbedOutput{Applied: true, Result: &result}, nil
	}

	plan, err := s.ports.Embed.Plan(ctx, req)
	if err != nil {
		return nil, EmbedOutput{}, err
	}
	out := EmbedOutput{Plan: &plan}
	if input.Apply {
		out.Note = planOnlyNote
	}
	return nil, out, nil
}

// handleReindex handles the reindex tool invocation. Apply requests
// degrade to plans when the policy forbids DDL.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	defer release()

	req := driving.ReindexRequest{Lists: input.Lists}

	if input.Apply && s.policy.AllowReindexApply {
		result, err := s.ports.Reindex.Apply(ctx, req)
		if err != nil {
			return nil, ReindexOutput{}, err
		}
		return nil, ReindexOutput{Applied: true, Result: &result}, nil
	}

	plan, err := s.ports.Reindex.Plan(ctx, req)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	out := ReindexOutput{Plan: &plan}
	if input.Apply {
		out.Note = planOnlyNote
	}
	return nil, out, nil
}
