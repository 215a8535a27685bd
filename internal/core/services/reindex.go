package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure ReindexService implements the interface.
var _ driving.ReindexService = (*ReindexService)(nil)

// ReindexService keeps the ANN index's lists parameter aligned with
// corpus growth. It computes a plan by default and only mutates the
// index on an explicit apply. Callers serialize applies; only one
// build/swap may be in flight at a time.
type ReindexService struct {
	store driven.EmbeddingStore
	index driven.IndexAdmin
	sink  driven.ResultSink
}

// NewReindexService creates a new index-maintenance service.
// A nil sink discards progress reporting.
func NewReindexService(
	store driven.EmbeddingStore,
	index driven.IndexAdmin,
	sink driven.ResultSink,
) *ReindexService {
	if sink == nil {
		sink = driven.DiscardSink{}
	}
	return &ReindexService{
		store: store,
		index: index,
		sink:  sink,
	}
}

// Plan computes the lifecycle decision without executing any DDL.
func (s *ReindexService) Plan(ctx context.Context, req driving.ReindexRequest) (domain.ReindexPlan, error) {
	plan, err := s.decide(ctx, req)
	if err != nil {
		return domain.ReindexPlan{}, err
	}
	if err := s.sink.Plan("reindex", plan); err != nil {
		return domain.ReindexPlan{}, err
	}
	return plan, nil
}

// Apply executes the planned transition. A failed replacement build
// leaves the canonical index untouched; the old index is only dropped
// after the new one exists.
func (s *ReindexService) Apply(ctx context.Context, req driving.ReindexRequest) (domain.ReindexResult, error) {
	plan, err := s.decide(ctx, req)
	if err != nil {
		return domain.ReindexResult{}, err
	}

	switch plan.Action {
	case domain.ActionReindex:
		logger.Phase("reindex", "Reindex")
		if err := s.index.ReindexInPlace(ctx); err != nil {
			return domain.ReindexResult{}, fmt.Errorf("reindex in place: %w", err)
		}

	case domain.ActionSwap:
		logger.Phase("reindex", "BuildReplacement")
		if err := s.index.BuildReplacementIndex(ctx, plan.DesiredLists); err != nil {
			return domain.ReindexResult{}, fmt.Errorf("build replacement index: %w", err)
		}
		logger.Phase("reindex", "Swap")
		if err := s.index.SwapReplacementIndex(ctx); err != nil {
			return domain.ReindexResult{}, fmt.Errorf("swap replacement index: %w", err)
		}

	default:
		return domain.ReindexResult{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, plan.Action)
	}

	// Refresh planner statistics after any action.
	logger.Phase("reindex", "Analyze")
	if err := s.index.AnalyzeEmbeddings(ctx); err != nil {
		return domain.ReindexResult{}, fmt.Errorf("analyze embeddings: %w", err)
	}

	result := domain.ReindexResult{
		Action:       plan.Action,
		DesiredLists: plan.DesiredLists,
		CurrentLists: plan.CurrentLists,
		Analyzed:     true,
	}
	if err := s.sink.Result("reindex", result); err != nil {
		return domain.ReindexResult{}, err
	}
	return result, nil
}

// decide runs discovery and the decision table shared by Plan and Apply.
func (s *ReindexService) decide(ctx context.Context, req driving.ReindexRequest) (domain.ReindexPlan, error) {
	logger.Section("Reindex Decision")

	rows, err := s.store.EmbeddingCount(ctx)
	if err != nil {
		return domain.ReindexPlan{}, fmt.Errorf("count embeddings: %w", err)
	}

	desired := req.Lists
	if desired <= 0 {
		desired = domain.HeuristicLists(rows)
	}

	current, err := s.index.IndexLists(ctx)
	switch {
	case errors.Is(err, domain.ErrIndexMissing):
		// Schema bootstrap is external; never create silently.
		return domain.ReindexPlan{}, err
	case errors.Is(err, domain.ErrIndexStateUnknown):
		// Index exists but lists could not be parsed. Be conservative:
		// rebuild in place rather than swapping blind.
		logger.Warn("Index lists unreadable; planning in-place reindex")
		return domain.ReindexPlan{
			Rows:         rows,
			CurrentLists: 0,
			DesiredLists: desired,
			Action:       domain.ActionReindex,
			Analyze:      true,
		}, nil
	case err != nil:
		return domain.ReindexPlan{}, fmt.Errorf("read index lists: %w", err)
	}

	action := domain.ActionReindex
	if current != desired {
		action = domain.ActionSwap
	}
	logger.Debug("rows=%d current_lists=%d desired_lists=%d action=%s", rows, current, desired, action)

	return domain.ReindexPlan{
		Rows:         rows,
		CurrentLists: current,
		DesiredLists: desired,
		Action:       action,
		Analyze:      true,
	}, nil
}
