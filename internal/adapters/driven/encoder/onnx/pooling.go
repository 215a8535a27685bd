package onnx

import "math"

// denomFloor guards the mean-pool divisor against all-zero masks.
const denomFloor = 1e-6

// meanPool collapses a (tokens x dim) slice of hidden states into a
// single vector, weighting each token row by its attention mask value.
// Padding tokens carry mask 0 and contribute nothing.
func meanPool(hidden []float32, mask []int64, tokens, dim int) []float32 {
	sums := make([]float64, dim)
	var denom float64

	for t := 0; t < tokens; t++ {
		if mask[t] == 0 {
			continue
		}
		denom++
		row := hidden[t*dim : (t+1)*dim]
		for d, v := range row {
			sums[d] += float64(v)
		}
	}
	if denom < denomFloor {
		denom = denomFloor
	}

	out := make([]float32, dim)
	for d, s := range sums {
		out[d] = float32(s / denom)
	}
	return out
}

// l2Normalize scales v to unit length. Accumulation happens in float64
// to keep the norm stable for long vectors. A zero vector is returned
// unchanged rather than divided by zero.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
