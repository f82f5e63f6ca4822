// Package postgres provides Postgres-backed persistence for imported pages.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentforge/siteimport/internal/content"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for content rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Store writes imported page records into Postgres.
type Store struct {
	pool  dbPool
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "site_content"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{
		pool:  pool,
		table: table,
	}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool dbPool, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "site_content"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// EnsureSchema creates the content table and its read index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	source_url TEXT NOT NULL,
	language TEXT NOT NULL DEFAULT '',
	raw_html TEXT NOT NULL DEFAULT '',
	raw_text TEXT NOT NULL DEFAULT '',
	sections JSONB NOT NULL DEFAULT '{}'::jsonb,
	navigation JSONB NOT NULL DEFAULT '[]'::jsonb,
	status_code INT NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT '',
	fetched_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return &content.StoreError{Op: "ensure schema", Err: err}
	}
	idx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_created_at_idx ON %s (created_at DESC)`,
		s.table, s.table,
	)
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return &content.StoreError{Op: "ensure schema", Err: err}
	}
	return nil
}

// Create inserts a content row into Postgres.
func (s *Store) Create(ctx context.Context, rec content.SiteContent) (content.SiteContent, error) {
	if s == nil || s.pool == nil {
		return content.SiteContent{}, &content.StoreError{Op: "create", Err: fmt.Errorf("store is not configured")}
	}
	if rec.ID == "" {
		return content.SiteContent{}, &content.StoreError{Op: "create", Err: fmt.Errorf("record id is required")}
	}
	sectionsJSON, err := json.Marshal(normalizeSections(rec.Sections))
	if err != nil {
		return content.SiteContent{}, &content.StoreError{Op: "create", Err: fmt.Errorf("marshal sections: %w", err)}
	}
	navigationJSON, err := json.Marshal(normalizeNavigation(rec.Navigation))
	if err != nil {
		return content.SiteContent{}, &content.StoreError{Op: "create", Err: fmt.Errorf("marshal navigation: %w", err)}
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	source_url,
	language,
	raw_html,
	raw_text,
	sections,
	navigation,
	status_code,
	content_hash,
	fetched_at,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, s.table)

	args := []any{
		rec.ID,
		rec.SourceURL,
		rec.Language,
		rec.RawHTML,
		rec.RawText,
		sectionsJSON,
		navigationJSON,
		rec.StatusCode,
		rec.ContentHash,
		rec.FetchedAt,
		rec.CreatedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return content.SiteContent{}, &content.StoreError{Op: "create", Err: err}
	}
	return rec, nil
}

// Latest returns up to limit rows ordered newest-first by creation time.
func (s *Store) Latest(ctx context.Context, limit int) ([]content.SiteContent, error) {
	if s == nil || s.pool == nil {
		return nil, &content.StoreError{Op: "latest", Err: fmt.Errorf("store is not configured")}
	}
	if limit < 0 {
		limit = 0
	}
	query := fmt.Sprintf(`
SELECT id, source_url, language, raw_html, raw_text, sections, navigation, status_code, content_hash, fetched_at, created_at
FROM %s
ORDER BY created_at DESC
LIMIT $1`, s.table)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, &content.StoreError{Op: "latest", Err: err}
	}
	defer rows.Close()

	out := make([]content.SiteContent, 0, limit)
	for rows.Next() {
		var (
			rec            content.SiteContent
			sectionsJSON   []byte
			navigationJSON []byte
		)
		err := rows.Scan(
			&rec.ID,
			&rec.SourceURL,
			&rec.Language,
			&rec.RawHTML,
			&rec.RawText,
			&sectionsJSON,
			&navigationJSON,
			&rec.StatusCode,
			&rec.ContentHash,
			&rec.FetchedAt,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, &content.StoreError{Op: "latest", Err: err}
		}
		if err := json.Unmarshal(sectionsJSON, &rec.Sections); err != nil {
			return nil, &content.StoreError{Op: "latest", Err: fmt.Errorf("unmarshal sections: %w", err)}
		}
		if err := json.Unmarshal(navigationJSON, &rec.Navigation); err != nil {
			return nil, &content.StoreError{Op: "latest", Err: fmt.Errorf("unmarshal navigation: %w", err)}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &content.StoreError{Op: "latest", Err: err}
	}
	return out, nil
}

// Ping verifies connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return &content.StoreError{Op: "ping", Err: fmt.Errorf("store is not configured")}
	}
	if err := s.pool.Ping(ctx); err != nil {
		return &content.StoreError{Op: "ping", Err: err}
	}
	return nil
}

// Name identifies the provider.
func (s *Store) Name() string {
	return "postgres"
}

// Close releases the underlying pool resources.
func (s *Store) Close(context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func normalizeSections(sections content.Sections) content.Sections {
	if sections == nil {
		return content.Sections{}
	}
	return sections
}

func normalizeNavigation(nav []content.NavLink) []content.NavLink {
	if nav == nil {
		return []content.NavLink{}
	}
	return nav
}
