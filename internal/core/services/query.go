package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// probeRatio divides the index's lists value to derive the default probe
// count. A tunable default, not an empirically proven optimum.
const probeRatio = 10

// QueryService answers a question by ANN search over stored embeddings.
// One invocation runs its phases strictly in order; concurrent
// invocations are independent and read-only against the store.
type QueryService struct {
	store   driven.CandidateStore
	index   driven.IndexAdmin
	factory driven.EncoderFactory
}

// NewQueryService creates a new query service.
func NewQueryService(
	store driven.CandidateStore,
	index driven.IndexAdmin,
	factory driven.EncoderFactory,
) *QueryService {
	return &QueryService{
		store:   store,
		index:   index,
		factory: factory,
	}
}

// Run executes one retrieval invocation.
func (s *QueryService) Run(ctx context.Context, req domain.QueryRequest) (domain.QueryOutcome, error) {
	// Invocation ID keeps interleaved logs from concurrent callers
	// (the MCP server in particular) attributable.
	runID := uuid.NewString()[:8]

	logger.Section("Query Execution")
	logger.Debug("[%s] Query: %q top_n=%d topk=%d doc_cap=%d", runID, req.Query, req.TopN, req.TopK, req.DocCap)

	if req.TopN <= 0 {
		req.TopN = domain.DefaultTopN
	}
	if req.TopK <= 0 {
		req.TopK = domain.DefaultTopK
	}

	// Prepare: learn the ambient vector dimension. An empty embedding
	// space short-circuits before the encoder is built, so an empty
	// store never pays the model-load cost.
	logger.Phase("query", "Prepare")
	if err := ctx.Err(); err != nil {
		return domain.QueryOutcome{}, err
	}
	dbDim, ok, err := s.store.AnyEmbeddingDim(ctx)
	if err != nil {
		return domain.QueryOutcome{}, fmt.Errorf("read embedding dimension: %w", err)
	}
	if !ok {
		logger.Info("No embeddings found; returning empty result")
		return domain.QueryOutcome{Rows: []domain.ResultRow{}}, nil
	}
	logger.Debug("Store dimension: %d", dbDim)

	// EmbedQuery
	logger.Phase("query", "EmbedQuery")
	enc, err := s.factory.New(ctx, req.Encoder)
	if err != nil {
		return domain.QueryOutcome{}, fmt.Errorf("init encoder: %w", err)
	}
	defer enc.Close()

	qvec, err := enc.EmbedQuery(ctx, req.Query)
	if err != nil {
		return domain.QueryOutcome{}, fmt.Errorf("embed query: %w", err)
	}
	if len(qvec) != dbDim {
		return domain.QueryOutcome{}, fmt.Errorf(
			"%w: query vector dim=%d, store dim=%d", domain.ErrDimensionMismatch, len(qvec), dbDim)
	}

	// SetProbes: the value is computed here and applied by the store
	// inside the fetch transaction only.
	logger.Phase("query", "SetProbes")
	probes := s.effectiveProbes(ctx, req.Probes)
	logger.Debug("Effective probes: %d", probes)

	// FetchCandidates
	logger.Phase("query", "FetchCandidates")
	if err := ctx.Err(); err != nil {
		return domain.QueryOutcome{}, err
	}
	candidates, err := s.store.FetchCandidates(ctx, qvec, driven.CandidateQuery{
		TopN:           req.TopN,
		Probes:         probes,
		FeedID:         req.FeedID,
		Since:          req.Since,
		IncludePreview: req.IncludePreview,
		IncludeText:    req.IncludeText,
	})
	if err != nil {
		return domain.QueryOutcome{}, fmt.Errorf("fetch candidates: %w", err)
	}
	logger.Debug("Candidates: %d", len(candidates))

	// PostFilter
	logger.Phase("query", "PostFilter")
	rows := domain.CapByDocument(candidates, req.TopK, req.DocCap)
	logger.Info("[%s] Final results: %d", runID, len(rows))

	// Output
	return domain.QueryOutcome{Rows: rows, Probes: probes}, nil
}

// effectiveProbes resolves the probe count for one request. An explicit
// override bypasses index metadata entirely; otherwise the value derives
// from the index's lists parameter. Missing or unreadable index metadata
// leaves the store default in place (0).
func (s *QueryService) effectiveProbes(ctx context.Context, override int) int {
	if override > 0 {
		return override
	}
	if override < 0 {
		// Negative overrides are clamped rather than rejected.
		return 1
	}

	lists, err := s.index.IndexLists(ctx)
	if err != nil {
		logger.Warn("No usable index metadata for probe derivation: %v", err)
		return 0
	}

	probes := lists / probeRatio
	if probes < 1 {
		probes = 1
	}
	return probes
}
