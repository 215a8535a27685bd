package onnx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMeanPool_IgnoresPadding tests that masked-out token rows do not
// contribute to the pooled vector
func TestMeanPool_IgnoresPadding(t *testing.T) {
	// Two real tokens and one padding row with junk values.
	hidden := []float32{
		1, 2,
		3, 4,
		99, 99,
	}
	mask := []int64{1, 1, 0}

	got := meanPool(hidden, mask, 3, 2)

	assert.InDelta(t, 2.0, got[0], 1e-6)
	assert.InDelta(t, 3.0, got[1], 1e-6)
}

// TestMeanPool_AllMaskedUsesFloor tests the divisor floor for an
// all-padding input
func TestMeanPool_AllMaskedUsesFloor(t *testing.T) {
	hidden := []float32{5, 5, 5, 5}
	mask := []int64{0, 0}

	got := meanPool(hidden, mask, 2, 2)

	require.Len(t, got, 2)
	assert.Zero(t, got[0])
	assert.Zero(t, got[1])
}

// TestL2Normalize_UnitNorm tests that normalized vectors have length 1
func TestL2Normalize_UnitNorm(t *testing.T) {
	got := l2Normalize([]float32{3, 4})

	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)

	var sum float64
	for _, x := range got {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

// TestL2Normalize_ZeroVectorUnchanged tests the zero-vector passthrough
func TestL2Normalize_ZeroVectorUnchanged(t *testing.T) {
	got := l2Normalize([]float32{0, 0, 0})

	assert.Equal(t, []float32{0, 0, 0}, got)
}

// TestModelFileCandidates_Order tests the candidate search order
func TestModelFileCandidates_Order(t *testing.T) {
	got := modelFileCandidates("intfloat/e5-small-v2")

	assert.Equal(t, []string{
		"onnx/model.onnx",
		"model.onnx",
		"e5-small-v2.onnx",
	}, got)
}

// TestCacheDirFor_NestsModelID tests that model IDs map to nested cache
// directories
func TestCacheDirFor_NestsModelID(t *testing.T) {
	got := cacheDirFor("/tmp/cache", "intfloat/e5-small-v2")

	assert.Contains(t, got, "models")
	assert.Contains(t, got, "e5-small-v2")
}
