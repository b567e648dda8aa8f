// Package store persists parsed translation memories in PostgreSQL. Files
// are keyed by content hash; a file's units are replaced wholesale in one
// transaction so readers never see a half-ingested file.
package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"tmxbank/internal/langtag"
	"tmxbank/internal/textutil"
	"tmxbank/internal/tmx"
)

type Store struct {
	pool *pgxpool.Pool
	sq   sq.StatementBuilderType
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		sq:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the tables the store needs. Safe to run repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS tmx_files (
			id BIGSERIAL PRIMARY KEY,
			path TEXT NOT NULL,
			content_hash TEXT NOT NULL UNIQUE,
			source_lang TEXT NOT NULL DEFAULT '',
			target_lang TEXT NOT NULL DEFAULT '',
			source_lang_canonical TEXT NOT NULL DEFAULT '',
			target_lang_canonical TEXT NOT NULL DEFAULT '',
			domains TEXT[] NOT NULL DEFAULT '{}',
			author TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ,
			unit_count INT NOT NULL DEFAULT 0,
			ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tm_units (
			id BIGSERIAL PRIMARY KEY,
			file_id BIGINT NOT NULL REFERENCES tmx_files(id) ON DELETE CASCADE,
			ord INT NOT NULL,
			source_hash TEXT NOT NULL,
			source_text TEXT NOT NULL,
			target_text TEXT NOT NULL DEFAULT '',
			has_target BOOLEAN NOT NULL DEFAULT FALSE,
			confirmation TEXT NOT NULL DEFAULT 'Unspecified',
			domain TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ,
			changed_by TEXT NOT NULL DEFAULT '',
			changed_at TIMESTAMPTZ,
			UNIQUE (file_id, ord)
		)`,
		`CREATE INDEX IF NOT EXISTS tm_units_source_hash_idx ON tm_units (source_hash)`,
	}

	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	log.Debug().Msg("Store schema ensured")
	return nil
}

// SaveFile upserts the file row and replaces its units in one transaction.
// The returned id identifies the file row.
func (s *Store) SaveFile(ctx context.Context, path, contentHash string, hdr tmx.Header, units []tmx.TranslationUnit) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	srcCanon, _ := langtag.Canonical(hdr.SourceLanguage)
	tgtCanon, _ := langtag.Canonical(hdr.TargetLanguage)
	domains := hdr.Domains
	if domains == nil {
		domains = []string{}
	}

	insert := s.sq.Insert("tmx_files").
		Columns("path", "content_hash", "source_lang", "target_lang",
			"source_lang_canonical", "target_lang_canonical",
			"domains", "author", "created_at", "unit_count").
		Values(path, contentHash, hdr.SourceLanguage, hdr.TargetLanguage,
			srcCanon, tgtCanon, domains, hdr.Author,
			nullableTime(hdr.CreatedAt), len(units)).
		Suffix(`ON CONFLICT (content_hash) DO UPDATE SET
			path = excluded.path,
			unit_count = excluded.unit_count,
			ingested_at = now()
		RETURNING id`)
	sqlStr, args, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build file upsert: %w", err)
	}

	var fileID int64
	if err := tx.QueryRow(ctx, sqlStr, args...).Scan(&fileID); err != nil {
		return 0, fmt.Errorf("upsert file: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tm_units WHERE file_id = $1`, fileID); err != nil {
		return 0, fmt.Errorf("clear previous units: %w", err)
	}

	cols := []string{"file_id", "ord", "source_hash", "source_text", "target_text",
		"has_target", "confirmation", "domain", "created_by", "created_at",
		"changed_by", "changed_at"}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"tm_units"}, cols,
		pgx.CopyFromSlice(len(units), func(i int) ([]any, error) {
			u := units[i]
			src := u.Source.Text()
			return []any{
				fileID, i, textutil.Hash(src), src,
				u.Target.Text(), u.Target != nil,
				u.Confirmation.String(), u.Domain,
				u.CreatedBy, nullableTime(u.CreatedAt),
				u.ChangedBy, nullableTime(u.ChangedAt),
			}, nil
		}))
	if err != nil {
		return 0, fmt.Errorf("copy units: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	log.Info().Str("path", path).Int64("file_id", fileID).Int("units", len(units)).Msg("Stored translation memory")
	return fileID, nil
}

// Match is one lookup hit joined with its file provenance.
type Match struct {
	SourceText   string
	TargetText   string
	Confirmation string
	Domain       string
	FilePath     string
	SourceLang   string
	TargetLang   string
}

// SearchText finds units whose source or target text contains the query,
// newest files first. lang, when given, filters on the target language; the
// filter canonicalizes both sides so "DE-de" finds "de-DE" files.
func (s *Store) SearchText(ctx context.Context, query, lang string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 20
	}

	q := s.sq.Select(
		"u.source_text", "u.target_text", "u.confirmation", "u.domain",
		"f.path", "f.source_lang", "f.target_lang").
		From("tm_units u").
		Join("tmx_files f ON f.id = u.file_id").
		Where(sq.Or{
			sq.ILike{"u.source_text": "%" + query + "%"},
			sq.ILike{"u.target_text": "%" + query + "%"},
		}).
		OrderBy("f.ingested_at DESC", "u.ord ASC").
		Limit(uint64(limit))

	if lang != "" {
		if canon, ok := langtag.Canonical(lang); ok {
			q = q.Where(sq.Eq{"f.target_lang_canonical": canon})
		} else {
			q = q.Where(sq.Eq{"f.target_lang": lang})
		}
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}
	return s.queryMatches(ctx, sqlStr, args)
}

// LookupExact returns stored translations whose source text equals the
// query exactly, matched by hash. Only units with a target qualify.
func (s *Store) LookupExact(ctx context.Context, sourceText string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 20
	}

	q := s.sq.Select(
		"u.source_text", "u.target_text", "u.confirmation", "u.domain",
		"f.path", "f.source_lang", "f.target_lang").
		From("tm_units u").
		Join("tmx_files f ON f.id = u.file_id").
		Where(sq.Eq{"u.source_hash": textutil.Hash(sourceText)}).
		Where(sq.Eq{"u.has_target": true}).
		OrderBy("f.ingested_at DESC", "u.ord ASC").
		Limit(uint64(limit))

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build exact lookup: %w", err)
	}
	return s.queryMatches(ctx, sqlStr, args)
}

func (s *Store) queryMatches(ctx context.Context, sqlStr string, args []any) ([]Match, error) {
	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.SourceText, &m.TargetText, &m.Confirmation, &m.Domain,
			&m.FilePath, &m.SourceLang, &m.TargetLang); err != nil {
			return nil, fmt.Errorf("scan unit row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unit rows: %w", err)
	}
	return matches, nil
}

// Stats summarizes the store content.
type Stats struct {
	Files         int64
	Units         int64
	LanguagePairs int64
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM tmx_files),
			(SELECT count(*) FROM tm_units),
			(SELECT count(DISTINCT (source_lang_canonical, target_lang_canonical)) FROM tmx_files)
	`).Scan(&st.Files, &st.Units, &st.LanguagePairs)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
