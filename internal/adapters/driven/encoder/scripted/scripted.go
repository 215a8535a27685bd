// Package scripted provides a deterministic encoder that derives
// vectors from a hash of the input text. It needs no model assets and
// exists for tests and offline smoke runs of the pipeline.
package scripted

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Encoder implements the interface.
var _ driven.Encoder = (*Encoder)(nil)

// DefaultDim matches the e5-small family so scripted vectors fit the
// same schema as real ones.
const DefaultDim = 384

// Role seeds keep query and passage vectors for the same text distinct,
// mirroring an asymmetric bi-encoder.
const (
	passageSeed uint64 = 0x70617373 // "pass"
	querySeed   uint64 = 0x71757279 // "qury"
)

// Encoder is a stateless, deterministic text encoder. The same text and
// role always produce the same unit vector.
type Encoder struct {
	dim int
}

// New creates a scripted encoder. A dim of 0 uses DefaultDim.
func New(dim int) *Encoder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Encoder{dim: dim}
}

// EmbedPassages derives one vector per text under the passage role.
func (e *Encoder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, passageSeed)
}

// EmbedQueries derives one vector per text under the query role.
func (e *Encoder) EmbedQueries(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, querySeed)
}

// EmbedQuery derives a single query vector.
func (e *Encoder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedQueries(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// ModelTag identifies scripted vectors so they never mix with real
// model output in the store.
func (e *Encoder) ModelTag() string {
	return fmt.Sprintf("scripted-%d@onnx-cpu", e.dim)
}

// Close is a no-op; the encoder holds no resources.
func (e *Encoder) Close() error { return nil }

func (e *Encoder) embed(ctx context.Context, texts []string, seed uint64) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text, seed)
	}
	return out, nil
}

// vector expands a text hash into a unit vector. Each component comes
// from one round of an FNV chain over the previous component's bits.
func (e *Encoder) vector(text string, seed uint64) []float32 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)
	h.Write(buf[:])
	h.Write([]byte(text))
	state := h.Sum64()

	v := make([]float32, e.dim)
	var sum float64
	for d := range v {
		state = state*0x100000001b3 + uint64(d) + 1
		// Map the top bits onto [-1, 1).
		v[d] = float32(int64(state>>32)%2048)/1024 - 1
		sum += float64(v[d]) * float64(v[d])
	}

	if sum == 0 {
		v[0] = 1
		return v
	}
	norm := math.Sqrt(sum)
	for d := range v {
		v[d] = float32(float64(v[d]) / norm)
	}
	return v
}

// NewFactory returns an EncoderFactory that always yields a scripted
// encoder of the given dimension, ignoring the model selector.
func NewFactory(dim int) driven.EncoderFactory {
	return driven.EncoderFactoryFunc(func(_ context.Context, _ domain.EncoderConfig) (driven.Encoder, error) {
		return New(dim), nil
	})
}
