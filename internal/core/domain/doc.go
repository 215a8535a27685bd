// Package domain defines the core business entities for Quarry.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: a unit of ingested text awaiting or holding an embedding
//   - Embedding: a vector representation of a chunk under a model tag
//   - QueryRequest / ResultRow: the retrieval request/response shapes
//   - ReindexPlan / ReindexResult: ANN index lifecycle decisions
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
