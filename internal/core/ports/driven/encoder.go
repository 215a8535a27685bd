package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// Encoder converts text into fixed-dimension, L2-normalized vectors.
//
// The encoder is asymmetric: the same raw text embedded as a passage and
// as a query yields different token sequences (role-marker prefixes) and,
// generally, different vectors.
//
// Implementations may include:
//   - ONNX runtime inference over a local bi-encoder model
//   - A scripted test double with deterministic output
type Encoder interface {
	// EmbedPassages embeds texts with the passage role marker.
	// An empty input returns an empty slice without invoking inference.
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQueries embeds texts with the query role marker.
	EmbedQueries(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// ModelTag returns the composite model@device identifier that
	// embeddings produced by this encoder are stored under.
	ModelTag() string

	// Close releases the inference session.
	Close() error
}

// EncoderFactory constructs encoders on demand. Services depend on the
// factory rather than an Encoder so that invocations which short-circuit
// (for example a query against an empty store) never pay the model-load
// cost.
type EncoderFactory interface {
	// New builds an encoder for the given configuration. Resolving
	// model assets may perform a one-time network fetch.
	New(ctx context.Context, cfg domain.EncoderConfig) (Encoder, error)
}

// EncoderFactoryFunc adapts a function to the EncoderFactory interface.
type EncoderFactoryFunc func(ctx context.Context, cfg domain.EncoderConfig) (Encoder, error)

// New calls f.
func (f EncoderFactoryFunc) New(ctx context.Context, cfg domain.EncoderConfig) (Encoder, error) {
	return f(ctx, cfg)
}
