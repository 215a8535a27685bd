package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure candidateStore implements the interface.
var _ driven.CandidateStore = (*candidateStore)(nil)

// previewLen is the excerpt length returned for preview requests.
const previewLen = 300

// candidateStore is the ANN read path.
type candidateStore struct {
	store *Store
}

// AnyEmbeddingDim reads the dimension of one arbitrary stored embedding.
func (c *candidateStore) AnyEmbeddingDim(ctx context.Context) (int, bool, error) {
	var dim int
	err := c.store.pool.QueryRow(ctx,
		`SELECT dim FROM `+embeddingTable+` LIMIT 1`).Scan(&dim)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading embedding dim: %w", err)
	}
	return dim, true, nil
}

// FetchCandidates runs the ANN query inside its own transaction so the
// probe setting never leaks into other pooled sessions.
func (c *candidateStore) FetchCandidates(
	ctx context.Context, vector []float32, q driven.CandidateQuery,
) ([]domain.CandidateRow, error) {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning fetch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if q.Probes > 0 {
		// SET LOCAL takes no bind parameters; Probes is an integer.
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL ivfflat.probes = %d", q.Probes)); err != nil {
			return nil, fmt.Errorf("setting probes: %w", err)
		}
	}

	sql, args := buildCandidateSQL(vector, q)
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.CandidateRow
	for rows.Next() {
		var row domain.CandidateRow
		dest := []any{&row.ChunkID, &row.DocID, &row.Title, &row.Distance}
		if q.IncludePreview {
			dest = append(dest, &row.Preview)
		}
		if q.IncludeText {
			dest = append(dest, &row.Text)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing fetch transaction: %w", err)
	}
	return out, nil
}

// buildCandidateSQL assembles the ANN query with its optional filters
// and projections. The vector is always $1 so the ORDER BY expression
// matches the index expression.
func buildCandidateSQL(vector []float32, q driven.CandidateQuery) (string, []any) {
	var b strings.Builder
	args := []any{pgvector.NewVector(vector)}

	b.WriteString(`SELECT c.chunk_id, c.doc_id, coalesce(d.source_title, ''), e.vec <=> $1`)
	if q.IncludePreview {
		b.WriteString(fmt.Sprintf(`, left(c.text, %d)`, previewLen))
	}
	if q.IncludeText {
		b.WriteString(`, c.text`)
	}
	b.WriteString(`
FROM ` + embeddingTable + ` e
JOIN rag.chunk c ON c.chunk_id = e.chunk_id
JOIN rag.document d ON d.doc_id = c.doc_id`)

	var conds []string
	if q.FeedID > 0 {
		args = append(args, q.FeedID)
		conds = append(conds, fmt.Sprintf("d.feed_id = $%d", len(args)))
	}
	if !q.Since.IsZero() {
		args = append(args, q.Since)
		conds = append(conds, fmt.Sprintf("d.fetched_at >= $%d", len(args)))
	}
	if len(conds) > 0 {
		b.WriteString("\nWHERE " + strings.Join(conds, " AND "))
	}

	args = append(args, q.TopN)
	b.WriteString(fmt.Sprintf("\nORDER BY e.vec <=> $1\nLIMIT $%d", len(args)))

	return b.String(), args
}
