package mcp

import (
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers retrieval questions.
	Query driving.QueryService

	// Embed runs the embedding job.
	Embed driving.EmbedService

	// Reindex runs index maintenance.
	Reindex driving.ReindexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Embed and Reindex are optional; their tools are only registered
	// when present.
	return nil
}

// Policy controls which tools may mutate state. Plan-only is the
// default; agent-requested applies degrade to plans unless allowed.
type Policy struct {
	// AllowEmbedApply permits the embed tool to write embeddings.
	AllowEmbedApply bool

	// AllowReindexApply permits the reindex tool to run index DDL.
	AllowReindexApply bool

	// MaxConcurrent caps simultaneous tool calls. Each call may hold a
	// model session and a database connection. Values below 1 mean 1.
	MaxConcurrent int
}

// Defaults carries the per-deployment retrieval settings tools fall
// back to when an input omits them.
type Defaults struct {
	// Encoder selects the embedding model for all tools.
	Encoder domain.EncoderConfig

	// Dim is the expected embedding dimension.
	Dim int

	// Batch is the embed tool's inference batch size.
	Batch int
}
