package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure embeddingStore implements the interface.
var _ driven.EmbeddingStore = (*embeddingStore)(nil)

// embeddingStore is the chunk source and embedding write path.
type embeddingStore struct {
	store *Store
}

// candidateFilter restricts chunks to those the embedding job would
// process. Force mode processes everything; otherwise only chunks with
// no embedding row under the model tag qualify. A chunk embedded under
// a different tag still qualifies because the upsert replaces its row.
func candidateFilter(force bool) string {
	if force {
		return ""
	}
	return `
LEFT JOIN ` + embeddingTable + ` e ON e.chunk_id = c.chunk_id AND e.model = $1
WHERE e.chunk_id IS NULL`
}

func candidateArgs(modelTag string, force bool, extra ...any) []any {
	if force {
		return extra
	}
	return append([]any{modelTag}, extra...)
}

func (e *embeddingStore) EmbeddingCount(ctx context.Context) (int64, error) {
	var n int64
	err := e.store.pool.QueryRow(ctx,
		`SELECT count(*) FROM `+embeddingTable).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

func (e *embeddingStore) CountEmbedCandidates(ctx context.Context, modelTag string, force bool) (int64, error) {
	sql := `SELECT count(*) FROM rag.chunk c` + candidateFilter(force)

	var n int64
	err := e.store.pool.QueryRow(ctx, sql, candidateArgs(modelTag, force)...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting embed candidates: %w", err)
	}
	return n, nil
}

func (e *embeddingStore) ListEmbedCandidates(
	ctx context.Context, modelTag string, force bool, limit int64,
) ([]domain.Chunk, error) {
	args := candidateArgs(modelTag, force, limit)
	sql := fmt.Sprintf(`SELECT c.chunk_id, c.doc_id, c.text, c.token_count FROM rag.chunk c%s
ORDER BY c.chunk_id
LIMIT $%d`, candidateFilter(force), len(args))

	rows, err := e.store.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing embed candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ChunkID, &c.DocID, &c.Text, &c.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	return out, nil
}

func (e *embeddingStore) SampleEmbedCandidateIDs(
	ctx context.Context, modelTag string, force bool, limit int64,
) ([]int64, error) {
	args := candidateArgs(modelTag, force, limit)
	sql := fmt.Sprintf(`SELECT c.chunk_id FROM rag.chunk c%s
ORDER BY c.chunk_id
LIMIT $%d`, candidateFilter(force), len(args))

	rows, err := e.store.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("sampling embed candidates: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunk ids: %w", err)
	}
	return out, nil
}

// UpsertEmbedding inserts or replaces the embedding row for the chunk.
func (e *embeddingStore) UpsertEmbedding(ctx context.Context, emb domain.Embedding) error {
	_, err := e.store.pool.Exec(ctx, `
INSERT INTO `+embeddingTable+` (chunk_id, model, dim, vec)
VALUES ($1, $2, $3, $4)
ON CONFLICT (chunk_id) DO UPDATE
SET model = EXCLUDED.model, dim = EXCLUDED.dim, vec = EXCLUDED.vec`,
		emb.ChunkID, emb.ModelTag, emb.Dim, pgvector.NewVector(emb.Vector))
	if err != nil {
		return fmt.Errorf("upserting embedding: %w", err)
	}
	return nil
}
