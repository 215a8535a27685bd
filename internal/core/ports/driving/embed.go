package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// EmbedService turns chunks into stored embeddings.
type EmbedService interface {
	// Plan reports candidate counts and a sample of affected chunk IDs
	// without loading the model or writing to the store.
	Plan(ctx context.Context, req domain.EmbedRequest) (domain.EmbedPlan, error)

	// Apply loads the encoder and embeds candidate chunks in batches,
	// upserting one embedding row per chunk under the model tag.
	// Re-running with identical inputs is safe.
	Apply(ctx context.Context, req domain.EmbedRequest) (domain.EmbedResult, error)
}
