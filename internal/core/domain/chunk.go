package domain

// Chunk is a unit of ingested text produced by the chunking pipeline.
// Chunks are immutable from the retrieval core's perspective; the core
// only reads them to embed their text.
type Chunk struct {
	// ChunkID is the unique identifier for the chunk.
	ChunkID int64

	// DocID links to the parent document.
	DocID int64

	// Text is the chunk's passage text.
	Text string

	// TokenCount is the token length recorded at chunking time.
	TokenCount int
}

// Embedding stores the vector representation of a chunk under one model tag.
// There is exactly one embedding per chunk per model tag; re-embedding the
// same chunk replaces the row (upsert semantics).
type Embedding struct {
	// ChunkID is the embedded chunk.
	ChunkID int64

	// ModelTag identifies the embedding model and inference device,
	// e.g. "intfloat/e5-small-v2@onnx-cpu". Vectors produced under
	// different tags are not numerically comparable.
	ModelTag string

	// Dim is the vector dimension.
	Dim int

	// Vector is the L2-normalized embedding.
	Vector []float32
}
