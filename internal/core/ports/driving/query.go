package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// QueryService answers a user question with ranked, deduplicated chunks.
type QueryService interface {
	// Run executes one retrieval invocation. Phases run strictly in
	// order: Prepare, EmbedQuery, SetProbes, FetchCandidates,
	// PostFilter, Output. An empty embedding space and zero ANN hits
	// both produce an empty outcome, not an error. Cancellation via ctx
	// surfaces as context.Canceled.
	Run(ctx context.Context, req domain.QueryRequest) (domain.QueryOutcome, error)
}
