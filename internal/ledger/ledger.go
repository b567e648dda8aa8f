// Package ledger tracks which TMX files have already been ingested, keyed
// by content hash. A re-run of the ingest skips unchanged files without
// re-parsing them.
package ledger

import (
	"context"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Ledger provides in-memory + PostgreSQL-backed ingest bookkeeping.
type Ledger struct {
	pool *pgxpool.Pool
	sq   sq.StatementBuilderType
	mu   sync.RWMutex
	seen map[string]string // content hash → path it was ingested from
}

func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{
		pool: pool,
		sq:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		seen: make(map[string]string),
	}
}

// EnsureSchema creates the ledger table. Safe to run repeatedly.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tmx_ingests (
			content_hash TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			file_id BIGINT NOT NULL,
			ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// Preload loads all recorded ingests into memory.
func (l *Ledger) Preload(ctx context.Context) error {
	rows, err := l.pool.Query(ctx, `SELECT content_hash, path FROM tmx_ingests`)
	if err != nil {
		return fmt.Errorf("preload ledger: %w", err)
	}
	defer rows.Close()

	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for rows.Next() {
		var hash, path string
		if err := rows.Scan(&hash, &path); err != nil {
			return fmt.Errorf("scan ledger row: %w", err)
		}
		l.seen[hash] = path
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ledger rows: %w", err)
	}

	log.Info().Int("count", count).Msg("Preloaded ingest ledger")
	return nil
}

// Seen reports whether a content hash was already ingested, and from which
// path. The in-memory tier is consulted first.
func (l *Ledger) Seen(ctx context.Context, contentHash string) (string, bool) {
	l.mu.RLock()
	if path, ok := l.seen[contentHash]; ok {
		l.mu.RUnlock()
		return path, true
	}
	l.mu.RUnlock()

	query := l.sq.Select("path").From("tmx_ingests").Where(sq.Eq{"content_hash": contentHash})
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return "", false
	}

	var path string
	if err := l.pool.QueryRow(ctx, sqlStr, args...).Scan(&path); err != nil {
		return "", false
	}

	l.mu.Lock()
	l.seen[contentHash] = path
	l.mu.Unlock()

	return path, true
}

// Record stores an ingest in both tiers.
func (l *Ledger) Record(ctx context.Context, contentHash, path string, fileID int64) error {
	l.mu.Lock()
	l.seen[contentHash] = path
	l.mu.Unlock()

	insert := l.sq.Insert("tmx_ingests").
		Columns("content_hash", "path", "file_id").
		Values(contentHash, path, fileID).
		Suffix(`ON CONFLICT (content_hash) DO UPDATE SET
			path = excluded.path,
			file_id = excluded.file_id,
			ingested_at = now()`)
	sqlStr, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build ledger upsert: %w", err)
	}

	if _, err := l.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("record ingest: %w", err)
	}
	return nil
}
