package match

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// VectorIndex handles pgvector-backed embedding storage and similarity
// search over source segments.
type VectorIndex struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewVectorIndex creates a new vector index.
func NewVectorIndex(pool *pgxpool.Pool, dimensions int) *VectorIndex {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &VectorIndex{
		pool:       pool,
		dimensions: dimensions,
	}
}

// EnsureSchema creates the vector extension and the embedding table. Safe
// to run repeatedly.
func (vi *VectorIndex) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tm_embeddings (
			source_hash TEXT PRIMARY KEY,
			source_text TEXT NOT NULL,
			file_path TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL
		)`, vi.dimensions),
	}
	for _, stmt := range stmts {
		if _, err := vi.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	}
	return nil
}

// EmbeddingRecord couples a source segment with its vector.
type EmbeddingRecord struct {
	Hash     string
	Source   string
	FilePath string
	Vector   []float32
}

// Upsert stores records, replacing the vector for already-known hashes.
func (vi *VectorIndex) Upsert(ctx context.Context, records []EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		_, err := vi.pool.Exec(ctx, `
			INSERT INTO tm_embeddings (source_hash, source_text, file_path, embedding)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (source_hash) DO UPDATE SET
				embedding = excluded.embedding,
				file_path = excluded.file_path`,
			r.Hash, r.Source, r.FilePath, pgvector.NewVector(r.Vector))
		if err != nil {
			return fmt.Errorf("insert embedding %s: %w", r.Hash, err)
		}
	}

	log.Info().Int("count", len(records)).Msg("Stored embeddings")
	return nil
}

// Known returns which of the given hashes already have embeddings.
func (vi *VectorIndex) Known(ctx context.Context, hashes []string) (map[string]bool, error) {
	known := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return known, nil
	}

	rows, err := vi.pool.Query(ctx,
		`SELECT source_hash FROM tm_embeddings WHERE source_hash = ANY($1)`, hashes)
	if err != nil {
		return nil, fmt.Errorf("query known embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scan embedding hash: %w", err)
		}
		known[hash] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedding hashes: %w", err)
	}
	return known, nil
}

// SimilarSegment is a similarity search match.
type SimilarSegment struct {
	Source     string
	FilePath   string
	Similarity float64
}

// Search finds the top-K stored segments nearest to the query vector by
// cosine distance.
func (vi *VectorIndex) Search(ctx context.Context, queryVector []float32, topK int) ([]SimilarSegment, error) {
	if topK <= 0 {
		topK = 10
	}

	rows, err := vi.pool.Query(ctx, `
		SELECT source_text, file_path, 1 - (embedding <=> $1) AS similarity
		FROM tm_embeddings
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []SimilarSegment
	for rows.Next() {
		var s SimilarSegment
		if err := rows.Scan(&s.Source, &s.FilePath, &s.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}
