package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func TestReindexCmd_PlanIsDefault(t *testing.T) {
	_, _, reindex, cleanup := setupTestServices()
	defer cleanup()
	reindex.plan = domain.ReindexPlan{
		Rows:         40_000,
		CurrentLists: 100,
		DesiredLists: 200,
		Action:       domain.ActionSwap,
		Analyze:      true,
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"reindex"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.False(t, reindex.applied, "plan must not execute")
	assert.Contains(t, buf.String(), "current 100, desired 200")
	assert.Contains(t, buf.String(), "swap")
	assert.Contains(t, buf.String(), "--apply")
}

func TestReindexCmd_Apply(t *testing.T) {
	_, _, reindex, cleanup := setupTestServices()
	defer cleanup()
	reindex.result = domain.ReindexResult{
		Action:       domain.ActionReindex,
		CurrentLists: 100,
		DesiredLists: 100,
		Analyzed:     true,
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"reindex", "--apply"})
	defer func() {
		rootCmd.SetArgs(nil)
		reindexApply = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.True(t, reindex.applied)
	assert.Contains(t, buf.String(), "Executed reindex")
}

func TestReindexCmd_MissingIndexErrorSurfaces(t *testing.T) {
	_, _, reindex, cleanup := setupTestServices()
	defer cleanup()
	reindex.err = domain.ErrIndexMissing

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"reindex"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexMissing)
}

func TestEmbedCmd_PlanIsDefault(t *testing.T) {
	_, embed, _, cleanup := setupTestServices()
	defer cleanup()
	embed.plan = domain.EmbedPlan{
		ModelTag:       "intfloat/e5-small-v2@onnx-cpu",
		Dim:            384,
		Candidates:     12,
		Planned:        12,
		SampleChunkIDs: []int64{1, 2, 3},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"embed"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.False(t, embed.applied, "plan must not execute")
	assert.Contains(t, buf.String(), "Would embed 12 of 12")
	assert.Contains(t, buf.String(), "[1 2 3]")
}

func TestEmbedCmd_Apply(t *testing.T) {
	_, embed, _, cleanup := setupTestServices()
	defer cleanup()
	embed.result = domain.EmbedResult{TotalEmbedded: 7}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"embed", "--apply"})
	defer func() {
		rootCmd.SetArgs(nil)
		embedApply = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.True(t, embed.applied)
	assert.Contains(t, buf.String(), "Embedded 7 chunk(s).")
}
