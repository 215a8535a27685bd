package services

import (
	"context"
	"fmt"
	"math"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure EmbedService implements the interface.
var _ driving.EmbedService = (*EmbedService)(nil)

// EmbedService turns chunk text into stored embeddings, one row per
// chunk per model tag. Upserts make re-runs safe after a failure.
type EmbedService struct {
	store   driven.EmbeddingStore
	factory driven.EncoderFactory
	sink    driven.ResultSink
}

// NewEmbedService creates a new embedding job service.
// A nil sink discards progress reporting.
func NewEmbedService(
	store driven.EmbeddingStore,
	factory driven.EncoderFactory,
	sink driven.ResultSink,
) *EmbedService {
	if sink == nil {
		sink = driven.DiscardSink{}
	}
	return &EmbedService{
		store:   store,
		factory: factory,
		sink:    sink,
	}
}

// Plan reports what an apply would do: candidate count, planned count
// after the max cap, and a sample of affected chunk IDs. It never loads
// the model and never writes.
func (s *EmbedService) Plan(ctx context.Context, req domain.EmbedRequest) (domain.EmbedPlan, error) {
	req = normalizeEmbedRequest(req)
	modelTag := req.Encoder.ModelTag()

	logger.Section("Embed Plan")
	logger.Debug("model=%s force=%t max=%d", modelTag, req.Force, req.Max)

	candidates, err := s.store.CountEmbedCandidates(ctx, modelTag, req.Force)
	if err != nil {
		return domain.EmbedPlan{}, fmt.Errorf("count candidates: %w", err)
	}

	planned := candidates
	if req.Max > 0 && req.Max < planned {
		planned = req.Max
	}

	sample, err := s.store.SampleEmbedCandidateIDs(ctx, modelTag, req.Force, int64(req.PlanLimit))
	if err != nil {
		return domain.EmbedPlan{}, fmt.Errorf("sample candidates: %w", err)
	}

	plan := domain.EmbedPlan{
		ModelTag:       modelTag,
		Dim:            req.Dim,
		Batch:          req.Batch,
		Force:          req.Force,
		Candidates:     candidates,
		Planned:        planned,
		SampleChunkIDs: sample,
	}
	if err := s.sink.Plan("embed", plan); err != nil {
		return domain.EmbedPlan{}, err
	}
	return plan, nil
}

// Apply loads the encoder and embeds candidate chunks batch by batch.
func (s *EmbedService) Apply(ctx context.Context, req domain.EmbedRequest) (domain.EmbedResult, error) {
	req = normalizeEmbedRequest(req)
	modelTag := req.Encoder.ModelTag()

	logger.Section("Embed Apply")
	logger.Debug("model=%s dim=%d batch=%d force=%t max=%d", modelTag, req.Dim, req.Batch, req.Force, req.Max)

	enc, err := s.factory.New(ctx, req.Encoder)
	if err != nil {
		return domain.EmbedResult{}, fmt.Errorf("init encoder: %w", err)
	}
	defer enc.Close()

	var total int64
	if req.Force {
		total, err = s.embedForceOnce(ctx, enc, req, modelTag)
	} else {
		total, err = s.embedMissingPaged(ctx, enc, req, modelTag)
	}
	if err != nil {
		return domain.EmbedResult{}, err
	}

	if total == 0 {
		s.sink.Info("embed", fmt.Sprintf("no chunks to embed (force=%t model=%s)", req.Force, modelTag))
	}

	result := domain.EmbedResult{TotalEmbedded: total}
	if err := s.sink.Result("embed", result); err != nil {
		return domain.EmbedResult{}, err
	}
	return result, nil
}

// embedForceOnce fetches the full candidate set once (optionally capped)
// and processes it in batches.
func (s *EmbedService) embedForceOnce(
	ctx context.Context, enc driven.Encoder, req domain.EmbedRequest, modelTag string,
) (int64, error) {
	limit := req.Max
	if limit <= 0 {
		limit = math.MaxInt64
	}
	chunks, err := s.store.ListEmbedCandidates(ctx, modelTag, true, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch chunks: %w", err)
	}

	var total int64
	for start := 0; start < len(chunks); start += req.Batch {
		end := start + req.Batch
		if end > len(chunks) {
			end = len(chunks)
		}
		n, err := s.embedBatch(ctx, enc, req, modelTag, chunks[start:end])
		if err != nil {
			return total, err
		}
		total += n
		s.sink.Info("embed", fmt.Sprintf("embedded %d chunk(s) (total=%d)", n, total))
	}
	return total, nil
}

// embedMissingPaged pages over chunks still missing an embedding under
// the model tag until the set is exhausted or the cap is reached. Each
// upsert shrinks the candidate set, so the next page is fetched fresh.
func (s *EmbedService) embedMissingPaged(
	ctx context.Context, enc driven.Encoder, req domain.EmbedRequest, modelTag string,
) (int64, error) {
	var total int64
	remaining := req.Max
	if remaining <= 0 {
		remaining = math.MaxInt64
	}

	for remaining > 0 {
		limit := int64(req.Batch)
		if remaining < limit {
			limit = remaining
		}

		if err := ctx.Err(); err != nil {
			return total, err
		}
		chunks, err := s.store.ListEmbedCandidates(ctx, modelTag, false, limit)
		if err != nil {
			return total, fmt.Errorf("fetch chunks: %w", err)
		}
		if len(chunks) == 0 {
			break
		}

		n, err := s.embedBatch(ctx, enc, req, modelTag, chunks)
		if err != nil {
			return total, err
		}
		total += n
		remaining -= int64(len(chunks))
		s.sink.Info("embed", fmt.Sprintf("embedded %d chunk(s) (total=%d)", n, total))
	}
	return total, nil
}

// embedBatch encodes one batch and upserts the resulting vectors.
func (s *EmbedService) embedBatch(
	ctx context.Context, enc driven.Encoder, req domain.EmbedRequest, modelTag string, chunks []domain.Chunk,
) (int64, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := enc.EmbedPassages(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: encoder returned %d vectors for %d chunks",
			domain.ErrInference, len(vectors), len(chunks))
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return 0, fmt.Errorf("%w: empty embedding dimension", domain.ErrInference)
	}
	if dim != req.Dim {
		return 0, fmt.Errorf("%w: model produced dim=%d but dim=%d was requested",
			domain.ErrDimensionMismatch, dim, req.Dim)
	}

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return int64(i), err
		}
		emb := domain.Embedding{
			ChunkID:  c.ChunkID,
			ModelTag: modelTag,
			Dim:      dim,
			Vector:   vectors[i],
		}
		if err := s.store.UpsertEmbedding(ctx, emb); err != nil {
			return int64(i), fmt.Errorf("upsert embedding chunk=%d: %w", c.ChunkID, err)
		}
	}
	return int64(len(chunks)), nil
}

func normalizeEmbedRequest(req domain.EmbedRequest) domain.EmbedRequest {
	if req.Batch <= 0 {
		req.Batch = 1
	}
	if req.PlanLimit <= 0 {
		req.PlanLimit = domain.DefaultPlanLimit
	}
	return req
}
