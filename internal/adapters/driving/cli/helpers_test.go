package cli

import (
	"context"

	"github.com/quarry-labs/quarry/internal/adapters/driven/config/file"
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	outcome domain.QueryOutcome
	err     error

	lastReq domain.QueryRequest
}

func (m *mockQueryService) Run(_ context.Context, req domain.QueryRequest) (domain.QueryOutcome, error) {
	m.lastReq = req
	return m.outcome, m.err
}

// mockEmbedService is a mock implementation of driving.EmbedService.
type mockEmbedService struct {
	plan   domain.EmbedPlan
	result domain.EmbedResult
	err    error

	applied bool
}

func (m *mockEmbedService) Plan(_ context.Context, _ domain.EmbedRequest) (domain.EmbedPlan, error) {
	return m.plan, m.err
}

func (m *mockEmbedService) Apply(_ context.Context, _ domain.EmbedRequest) (domain.EmbedResult, error) {
	m.applied = true
	return m.result, m.err
}

// mockReindexService is a mock implementation of driving.ReindexService.
type mockReindexService struct {
	plan   domain.ReindexPlan
	result domain.ReindexResult
	err    error

	applied bool
}

func (m *mockReindexService) Plan(_ context.Context, _ driving.ReindexRequest) (domain.ReindexPlan, error) {
	return m.plan, m.err
}

func (m *mockReindexService) Apply(_ context.Context, _ driving.ReindexRequest) (domain.ReindexResult, error) {
	m.applied = true
	return m.result, m.err
}

// setupTestServices injects mock services and a default config, and
// returns a cleanup restoring the previous wiring.
func setupTestServices() (query *mockQueryService, embed *mockEmbedService, reindex *mockReindexService, cleanup func()) {
	oldQuery, oldEmbed, oldReindex := queryService, embedService, reindexService
	oldCfg := cfg

	query = &mockQueryService{}
	embed = &mockEmbedService{}
	reindex = &mockReindexService{}

	queryService = query
	embedService = embed
	reindexService = reindex
	cfg = file.Default()

	return query, embed, reindex, func() {
		queryService, embedService, reindexService = oldQuery, oldEmbed, oldReindex
		cfg = oldCfg
	}
}
