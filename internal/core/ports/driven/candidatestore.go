package driven

import (
	"context"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// CandidateQuery configures one ANN candidate fetch.
type CandidateQuery struct {
	// TopN is the candidate pool size (LIMIT of the ANN query).
	TopN int64

	// Probes is the ivfflat probe count to apply for this fetch, 0 to
	// leave the store's default in place. The setting must be scoped to
	// the fetch's own transaction, never to the shared pool.
	Probes int

	// FeedID restricts to one source feed when > 0.
	FeedID int64

	// Since restricts to documents fetched at or after this time.
	// Zero means no freshness filter.
	Since time.Time

	// IncludePreview fetches a short text excerpt per hit.
	IncludePreview bool

	// IncludeText fetches the full chunk text per hit. Off by default
	// to avoid paying for large text transfers.
	IncludeText bool
}

// CandidateStore is the read path over the embedding space.
type CandidateStore interface {
	// AnyEmbeddingDim reads the dimension of one arbitrary stored
	// embedding. ok is false when the store holds no embeddings at all.
	AnyEmbeddingDim(ctx context.Context) (dim int, ok bool, err error)

	// FetchCandidates runs the ANN query ordered by ascending cosine
	// distance, applying the probe setting inside the fetch transaction.
	FetchCandidates(ctx context.Context, vector []float32, q CandidateQuery) ([]domain.CandidateRow, error)
}

// EmbeddingStore is the write path of the embedding job plus the chunk
// source it consumes.
type EmbeddingStore interface {
	// EmbeddingCount returns the total number of stored embeddings.
	EmbeddingCount(ctx context.Context) (int64, error)

	// CountEmbedCandidates counts chunks the embedding job would
	// process: all chunks when force, otherwise only chunks missing an
	// embedding under modelTag.
	CountEmbedCandidates(ctx context.Context, modelTag string, force bool) (int64, error)

	// ListEmbedCandidates returns up to limit candidate chunks in
	// chunk_id order, applying the same force semantics.
	ListEmbedCandidates(ctx context.Context, modelTag string, force bool, limit int64) ([]domain.Chunk, error)

	// SampleEmbedCandidateIDs returns up to limit candidate chunk IDs
	// for plan reporting.
	SampleEmbedCandidateIDs(ctx context.Context, modelTag string, force bool, limit int64) ([]int64, error)

	// UpsertEmbedding inserts or replaces the embedding row for the
	// chunk under its model tag. Idempotent for identical input.
	UpsertEmbedding(ctx context.Context, emb domain.Embedding) error
}

// IndexAdmin manages the ANN index lifecycle. All DDL entry points run
// on a dedicated connection outside any open transaction, as required
// for concurrent index builds. Serializing build/swap operations is the
// caller's responsibility.
type IndexAdmin interface {
	// IndexLists reads the lists parameter from the live index
	// definition. Returns domain.ErrIndexMissing when the index does
	// not exist and domain.ErrIndexStateUnknown when it exists but the
	// lists value could not be parsed.
	IndexLists(ctx context.Context) (int, error)

	// ReindexInPlace rebuilds the canonical index concurrently without
	// changing its parameters.
	ReindexInPlace(ctx context.Context) error

	// BuildReplacementIndex creates the replacement index concurrently
	// under a temporary name with the given lists value.
	BuildReplacementIndex(ctx context.Context, lists int) error

	// SwapReplacementIndex drops the canonical index and renames the
	// replacement into place. Only called after a successful build.
	SwapReplacementIndex(ctx context.Context) error

	// AnalyzeEmbeddings refreshes planner statistics for the embedding
	// table.
	AnalyzeEmbeddings(ctx context.Context) error
}
