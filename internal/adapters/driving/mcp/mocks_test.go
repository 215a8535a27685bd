package mcp

import (
	"context"

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

	planCalls  int
	applyCalls int
}

func (m *mockEmbedService) Plan(_ context.Context, _ domain.EmbedRequest) (domain.EmbedPlan, error) {
	m.planCalls++
	return m.plan, m.err
}

func (m *mockEmbedService) Apply(_ context.Context, _ domain.EmbedRequest) (domain.EmbedResult, error) {
	m.applyCalls++
	return m.result, m.err
}

// mockReindexService is a mock implementation of driving.ReindexService.
type mockReindexService struct {
	plan   domain.ReindexPlan
	result domain.ReindexResult
	err    error

	planCalls  int
	applyCalls int
}

func (m *mockReindexService) Plan(_ context.Context, _ driving.ReindexRequest) (domain.ReindexPlan, error) {
	m.planCalls++
	return m.plan, m.err
}

func (m *mockReindexService) Apply(_ context.Context, _ driving.ReindexRequest) (domain.ReindexResult, error) {
	m.applyCalls++
	return m.result, m.err
}
