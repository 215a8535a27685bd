package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports, policy Policy) *Server {
	t.Helper()
	server, err := NewServer(ports, policy, Defaults{
		Encoder: domain.EncoderConfig{ModelID: "intfloat/e5-small-v2", Device: domain.DeviceCPU},
		Dim:     384,
		Batch:   16,
	})
	require.NoError(t, err)
	return server
}

func TestNewServer_RequiresQueryService(t *testing.T) {
	_, err := NewServer(&Ports{}, Policy{}, Defaults{})

	assert.ErrorIs(t, err, ErrMissingQueryService)
}

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked rows", func(t *testing.T) {
		query := &mockQueryService{
			outcome: domain.QueryOutcome{
				Rows: []domain.ResultRow{
					{Rank: 1, ChunkID: 11, DocID: 7, Distance: 0.12, Title: "Postgres Tuning"},
					{Rank: 2, ChunkID: 31, DocID: 9, Distance: 0.19},
				},
				Probes: 20,
			},
		}
		server := newTestServer(t, &Ports{Query: query}, Policy{})

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Query: "index tuning"})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, 20, output.Probes)
		assert.Equal(t, int64(11), output.Rows[0].ChunkID)
	})

	t.Run("fills retrieval defaults", func(t *testing.T) {
		query := &mockQueryService{}
		server := newTestServer(t, &Ports{Query: query}, Policy{})

		_, _, err := server.handleQuery(ctx, nil, QueryInput{Query: "q", Since: "2025-01-02"})

		require.NoError(t, err)
		assert.Equal(t, "intfloat/e5-small-v2", query.lastReq.Encoder.ModelID)
		assert.Equal(t, domain.DefaultDocCap, query.lastReq.DocCap)
		assert.True(t, query.lastReq.IncludePreview)
		assert.False(t, query.lastReq.Since.IsZero())
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		query := &mockQueryService{err: errors.New("backend down")}
		server := newTestServer(t, &Ports{Query: query}, Policy{})

		_, _, err := server.handleQuery(ctx, nil, QueryInput{Query: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend down")
	})
}

func TestServer_handleEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("plans by default", func(t *testing.T) {
		embed := &mockEmbedService{plan: domain.EmbedPlan{Candidates: 12, Planned: 12}}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Embed: embed}, Policy{})

		_, output, err := server.handleEmbed(ctx, nil, EmbedInput{})

		require.NoError(t, err)
		assert.False(t, output.Applied)
		require.NotNil(t, output.Plan)
		assert.Equal(t, int64(12), output.Plan.Candidates)
		assert.Empty(t, output.Note)
		assert.Zero(t, embed.applyCalls)
	})

	t.Run("apply without permission degrades to plan", func(t *testing.T) {
		embed := &mockEmbedService{plan: domain.EmbedPlan{Candidates: 3}}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Embed: embed}, Policy{})

		_, output, err := server.handleEmbed(ctx, nil, EmbedInput{Apply: true})

		require.NoError(t, err)
		assert.False(t, output.Applied)
		assert.Equal(t, planOnlyNote, output.Note)
		assert.Zero(t, embed.applyCalls)
		assert.Equal(t, 1, embed.planCalls)
	})

	t.Run("apply with permission executes", func(t *testing.T) {
		embed := &mockEmbedService{result: domain.EmbedResult{TotalEmbedded: 7}}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Embed: embed},
			Policy{AllowEmbedApply: true})

		_, output, err := server.handleEmbed(ctx, nil, EmbedInput{Apply: true})

		require.NoError(t, err)
		assert.True(t, output.Applied)
		require.NotNil(t, output.Result)
		assert.Equal(t, int64(7), output.Result.TotalEmbedded)
		assert.Zero(t, embed.planCalls)
	})
}

func TestServer_handleReindex(t *testing.T) {
	ctx := context.Background()

	t.Run("apply without permission degrades to plan", func(t *testing.T) {
		reindex := &mockReindexService{
			plan: domain.ReindexPlan{Action: domain.ActionSwap, DesiredLists: 200},
		}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Reindex: reindex}, Policy{})

		_, output, err := server.handleReindex(ctx, nil, ReindexInput{Apply: true})

		require.NoError(t, err)
		assert.False(t, output.Applied)
		assert.Equal(t, planOnlyNote, output.Note)
		require.NotNil(t, output.Plan)
		assert.Equal(t, domain.ActionSwap, output.Plan.Action)
		assert.Zero(t, reindex.applyCalls)
	})

	t.Run("apply with permission executes", func(t *testing.T) {
		reindex := &mockReindexService{
			result: domain.ReindexResult{Action: domain.ActionReindex, Analyzed: true},
		}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Reindex: reindex},
			Policy{AllowReindexApply: true})

		_, output, err := server.handleReindex(ctx, nil, ReindexInput{Apply: true})

		require.NoError(t, err)
		assert.True(t, output.Applied)
		require.NotNil(t, output.Result)
		assert.True(t, output.Result.Analyzed)
	})

	t.Run("propagates planner error", func(t *testing.T) {
		reindex := &mockReindexService{err: domain.ErrIndexMissing}
		server := newTestServer(t, &Ports{Query: &mockQueryService{}, Reindex: reindex}, Policy{})

		_, _, err := server.handleReindex(ctx, nil, ReindexInput{})

		assert.ErrorIs(t, err, domain.ErrIndexMissing)
	})
}
