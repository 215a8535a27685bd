package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure indexAdmin implements the interface.
var _ driven.IndexAdmin = (*indexAdmin)(nil)

// replacementName is the temporary name replacement indexes are built
// under before the swap.
const replacementName = indexName + "_new"

// listsPattern extracts the lists storage parameter from an index
// definition. pgvector exposes no catalog API for ivfflat options, so
// the definition text is the only source.
var listsPattern = regexp.MustCompile(`lists\s*=\s*'?(\d+)'?`)

// indexAdmin manages the ivfflat index lifecycle. Every statement runs
// on its own pooled connection outside a transaction; CONCURRENTLY DDL
// refuses to run inside one.
type indexAdmin struct {
	store *Store
}

// IndexLists reads the lists parameter from the live index definition.
func (a *indexAdmin) IndexLists(ctx context.Context) (int, error) {
	var def string
	err := a.store.pool.QueryRow(ctx,
		`SELECT indexdef FROM pg_indexes WHERE schemaname = $1 AND indexname = $2`,
		indexSchema, indexName).Scan(&def)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s.%s", domain.ErrIndexMissing, indexSchema, indexName)
	}
	if err != nil {
		return 0, fmt.Errorf("reading index definition: %w", err)
	}

	lists, ok := parseListsFromIndexDef(def)
	if !ok {
		return 0, fmt.Errorf("%w: no lists parameter in %q", domain.ErrIndexStateUnknown, def)
	}
	return lists, nil
}

// parseListsFromIndexDef extracts the lists value from a
// pg_get_indexdef rendering of an ivfflat index.
func parseListsFromIndexDef(def string) (int, bool) {
	m := listsPattern.FindStringSubmatch(def)
	if m == nil {
		return 0, false
	}
	lists, err := strconv.Atoi(m[1])
	if err != nil || lists <= 0 {
		return 0, false
	}
	return lists, true
}

// ReindexInPlace rebuilds the canonical index without changing its
// parameters.
func (a *indexAdmin) ReindexInPlace(ctx context.Context) error {
	return a.exec(ctx, fmt.Sprintf("REINDEX INDEX CONCURRENTLY %s.%s", indexSchema, indexName))
}

// BuildReplacementIndex creates the replacement index under the
// temporary name. A leftover replacement from an earlier failed run is
// dropped first so the build never collides.
func (a *indexAdmin) BuildReplacementIndex(ctx context.Context, lists int) error {
	if lists <= 0 {
		return fmt.Errorf("%w: lists must be positive, got %d", domain.ErrInvalidInput, lists)
	}
	if err := a.exec(ctx, fmt.Sprintf(
		"DROP INDEX CONCURRENTLY IF EXISTS %s.%s", indexSchema, replacementName)); err != nil {
		return err
	}
	return a.exec(ctx, fmt.Sprintf(
		"CREATE INDEX CONCURRENTLY %s ON %s USING ivfflat (vec vector_cosine_ops) WITH (lists = %d)",
		replacementName, embeddingTable, lists))
}

// SwapReplacementIndex retires the canonical index and renames the
// replacement into place. The canonical index is only dropped once the
// replacement exists, so a crash between the two statements leaves a
// searchable index either way.
func (a *indexAdmin) SwapReplacementIndex(ctx context.Context) error {
	if err := a.exec(ctx, fmt.Sprintf(
		"DROP INDEX CONCURRENTLY %s.%s", indexSchema, indexName)); err != nil {
		return err
	}
	return a.exec(ctx, fmt.Sprintf(
		"ALTER INDEX %s.%s RENAME TO %s", indexSchema, replacementName, indexName))
}

// AnalyzeEmbeddings refreshes planner statistics for the embedding table.
func (a *indexAdmin) AnalyzeEmbeddings(ctx context.Context) error {
	return a.exec(ctx, "ANALYZE "+embeddingTable)
}

// exec runs one statement on a dedicated connection.
func (a *indexAdmin) exec(ctx context.Context, sql string) error {
	conn, err := a.store.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, sql); err != nil {
		return fmt.Errorf("executing %q: %w", sql, err)
	}
	return nil
}
