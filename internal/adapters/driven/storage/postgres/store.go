package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Object names used throughout the store.
const (
	embeddingTable = "rag.embedding"
	indexName      = "embedding_vec_ivf_idx"
	indexSchema    = "rag"
)

// Store is a unified PostgreSQL-backed storage that provides access to
// the retrieval store interfaces through wrapper types.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at url and registers the pgvector
// types on every pooled connection.
func NewStore(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// CandidateStore returns a CandidateStore interface backed by this store.
func (s *Store) CandidateStore() driven.CandidateStore {
	return &candidateStore{store: s}
}

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore {
	return &embeddingStore{store: s}
}

// IndexAdmin returns an IndexAdmin interface backed by this store.
func (s *Store) IndexAdmin() driven.IndexAdmin {
	return &indexAdmin{store: s}
}
