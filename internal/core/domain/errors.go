package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrModelAssets indicates the inference model or tokenizer assets
	// could not be resolved. This is a configuration problem, not a
	// transient fault, and is never retried internally.
	ErrModelAssets = errors.New("model assets unresolvable")

	// ErrInference indicates model execution failed or produced output
	// that does not match the encoder's assumptions (unexpected rank).
	ErrInference = errors.New("inference failed")

	// ErrDimensionMismatch indicates a query vector's dimension disagrees
	// with the dimension of the stored embeddings. Usually means the
	// query was embedded with the wrong model.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexMissing indicates the ANN index does not exist.
	// Schema bootstrap is an external responsibility; reindex refuses
	// to create the index silently.
	ErrIndexMissing = errors.New("ANN index missing")

	// ErrIndexStateUnknown indicates the ANN index exists but its lists
	// parameter could not be read from the index definition.
	ErrIndexStateUnknown = errors.New("ANN index state unknown")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)
