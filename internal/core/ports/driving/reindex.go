package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// ReindexRequest configures one index-maintenance invocation.
type ReindexRequest struct {
	// Lists forces a specific lists value when > 0. When 0 the
	// sqrt-of-corpus heuristic decides.
	Lists int
}

// ReindexService keeps the ANN index's lists parameter aligned with
// corpus growth and migrates the index without blocking reads.
type ReindexService interface {
	// Plan computes the lifecycle decision without executing any DDL.
	// Fails with domain.ErrIndexMissing when the index does not exist.
	Plan(ctx context.Context, req ReindexRequest) (domain.ReindexPlan, error)

	// Apply executes the planned transition and refreshes planner
	// statistics. Callers must not run two applies concurrently.
	Apply(ctx context.Context, req ReindexRequest) (domain.ReindexResult, error)
}
