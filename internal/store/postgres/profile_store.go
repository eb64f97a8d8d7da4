// Package postgres provides the Postgres-backed ProfileStore implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/influenceops/creatorscout/internal/profile"
	"github.com/influenceops/creatorscout/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ProfileStoreConfig controls the Postgres connection pool.
type ProfileStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ProfileStore persists creator profiles in Postgres.
//
// It assumes a table schema like:
// CREATE TABLE influencers (
//
//	id TEXT PRIMARY KEY,
//	title TEXT NOT NULL,
//	description TEXT,
//	published_at TIMESTAMPTZ,
//	subscriber_count BIGINT,
//	view_count BIGINT,
//	video_count BIGINT,
//	created_at TIMESTAMPTZ DEFAULT NOW()
//
// );
type ProfileStore struct {
	pool  queryPool
	table string
}

var _ store.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore creates a Postgres-backed ProfileStore using the provided config.
func NewProfileStore(ctx context.Context, cfg ProfileStoreConfig) (*ProfileStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "influencers"
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
	return &ProfileStore{pool: pool, table: table}, nil
}

// NewProfileStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProfileStoreWithPool(pool queryPool, table string) (*ProfileStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "influencers"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ProfileStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ProfileStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const profileColumns = "id, title, description, published_at, subscriber_count, view_count, video_count"

// Lookup fetches one profile by ID.
func (s *ProfileStore) Lookup(ctx context.Context, id string) (profile.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", profileColumns, s.table)
	p, err := scanProfile(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return profile.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("lookup profile: %w", err)
	}
	return p, nil
}

// InsertIfAbsent writes a profile row unless the ID already exists. The
// ON CONFLICT clause makes concurrent discoveries of the same identity safe:
// exactly one writer wins and the row is never overwritten.
func (s *ProfileStore) InsertIfAbsent(ctx context.Context, p profile.Profile) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	title,
	description,
	published_at,
	subscriber_count,
	view_count,
	video_count
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
) ON CONFLICT (id) DO NOTHING`, s.table)

	var desc *string
	if p.Description != "" {
		desc = &p.Description
	}
	tag, err := s.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		desc,
		p.PublishedAt,
		p.SubscriberCount,
		p.ViewCount,
		p.VideoCount,
	)
	if err != nil {
		return false, fmt.Errorf("insert profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryRanked returns profiles matching the filter, ordered by subscriber
// count descending with NULLS LAST, ties broken by ID ascending.
func (s *ProfileStore) QueryRanked(ctx context.Context, f store.Filter, limit int) ([]profile.Profile, error) {
	var (
		clauses []string
		args    []any
	)
	// subscriber_count >= $n is NULL-excluding, so a zero threshold still
	// filters out metric-less rows.
	if f.MinSubscribers != nil {
		args = append(args, *f.MinSubscribers)
		clauses = append(clauses, fmt.Sprintf("subscriber_count >= $%d", len(args)))
	}
	if f.IDIn != nil {
		args = append(args, f.IDIn)
		clauses = append(clauses, fmt.Sprintf("id = ANY($%d)", len(args)))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", profileColumns, s.table)
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	sb.WriteString(" ORDER BY subscriber_count DESC NULLS LAST, id ASC")
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func scanProfile(row pgx.Row) (profile.Profile, error) {
	var (
		p    profile.Profile
		desc *string
	)
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&desc,
		&p.PublishedAt,
		&p.SubscriberCount,
		&p.ViewCount,
		&p.VideoCount,
	); err != nil {
		return profile.Profile{}, err
	}
	if desc != nil {
		p.Description = *desc
	}
	return p, nil
}
