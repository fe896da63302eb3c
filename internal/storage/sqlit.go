package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"tokenizedCompare/internal/pools"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

// Store keeps the reference table of pool metrics in sqlite and serves it as
// a pool source. Rows are only ever replaced as a whole.
type Store struct{ db DB }

// OpenSQLite opens (and creates the directory of) a sqlite database file.
func OpenSQLite(dsn string) (*sql.DB, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return sql.Open("sqlite3", dsn)
}

func InitSchema(ctx context.Context, db DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS pool_metrics(
		symbol TEXT PRIMARY KEY,
		pool_tvl REAL NOT NULL,
		fees_24h REAL NOT NULL,
		volume_24h REAL NOT NULL,
		fees_30d REAL NOT NULL,
		volume_30d REAL NOT NULL,
		apr REAL
	)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

func (s *Store) Name() string { return "sqlite" }

// SeedIfEmpty writes list when the table has no rows yet.
func (s *Store) SeedIfEmpty(ctx context.Context, list []pools.PoolMetrics) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT COUNT(*) FROM pool_metrics`)
	if err != nil {
		return false, err
	}
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return false, err
		}
	}
	rows.Close()
	if n > 0 {
		return false, nil
	}
	return true, s.ReplaceAll(ctx, list)
}

// ReplaceAll swaps the table contents in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, list []pools.PoolMetrics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM pool_metrics`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO pool_metrics(symbol,pool_tvl,fees_24h,volume_24h,fees_30d,volume_30d,apr)
		VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range list {
		var apr sql.NullFloat64
		if m.APR != nil {
			apr = sql.NullFloat64{Float64: *m.APR, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, m.Symbol, m.PoolTVL, m.Fees24h, m.Volume24h, m.Fees30d, m.Volume30d, apr); err != nil {
			return fmt.Errorf("insert %s: %w", m.Symbol, err)
		}
	}
	return tx.Commit()
}

// FetchPools reads the whole table, largest pool first.
func (s *Store) FetchPools(ctx context.Context) ([]pools.PoolMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol,pool_tvl,fees_24h,volume_24h,fees_30d,volume_30d,apr
		FROM pool_metrics ORDER BY pool_tvl DESC, symbol ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pools.PoolMetrics
	for rows.Next() {
		var m pools.PoolMetrics
		var apr sql.NullFloat64
		if err := rows.Scan(&m.Symbol, &m.PoolTVL, &m.Fees24h, &m.Volume24h, &m.Fees30d, &m.Volume30d, &apr); err != nil {
			return nil, err
		}
		if apr.Valid {
			v := apr.Float64
			m.APR = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
