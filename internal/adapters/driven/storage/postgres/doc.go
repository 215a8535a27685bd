// Package postgres implements the retrieval storage ports on
// PostgreSQL with the pgvector extension. Candidate search runs over an
// ivfflat index; probe settings are scoped to the fetch transaction and
// index DDL runs on dedicated connections outside transactions.
//
// Schema bootstrap is external. The store expects the rag schema with
// the chunk, document and embedding tables and the canonical ivfflat
// index to exist.
package postgres
