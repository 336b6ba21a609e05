// Package postgres mirrors combined datasets into PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "combined_records"

// Config controls the Postgres connection pool used for combined rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type txPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store writes combined dataset rows into Postgres. It assumes a table
// shaped like:
//
//	CREATE TABLE combined_records (
//	  run_id uuid NOT NULL,
//	  rank integer NOT NULL,
//	  pageid bigint NOT NULL,
//	  title text NOT NULL,
//	  category text NOT NULL,
//	  yearly_views bigint NOT NULL,
//	  shortdesc text NOT NULL,
//	  word_count bigint NOT NULL,
//	  quality text NOT NULL,
//	  created_at timestamptz NOT NULL DEFAULT now(),
//	  PRIMARY KEY (run_id, pageid)
//	);
type Store struct {
	pool  txPool
	table string
}

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
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
	return &Store{pool: pool, table: table}, nil
}

// NewStoreWithPool constructs a Store from an existing pool (primarily for testing).
func NewStoreWithPool(pool txPool, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveCombined inserts every record under the run ID inside one transaction.
func (s *Store) SaveCombined(ctx context.Context, runID uuid.UUID, records []wiki.CombinedRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("combined store is not configured")
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin combined insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	rank,
	pageid,
	title,
	category,
	yearly_views,
	shortdesc,
	word_count,
	quality
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)`, s.table)

	for _, rec := range records {
		args := []any{
			runID,
			rec.Rank,
			rec.PageID,
			rec.Title,
			rec.Category,
			rec.YearlyViews,
			rec.ShortDesc,
			rec.WordCount,
			string(rec.Quality),
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert combined record %d: %w", rec.PageID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit combined insert: %w", err)
	}
	return nil
}
