// Package postgres provides a PostgreSQL-backed entity store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/store"
)

const schema = `CREATE TABLE IF NOT EXISTS entities (
	id     TEXT PRIMARY KEY,
	record JSONB NOT NULL
)`

// Config configures a PostgresBackend.
type Config struct {
	// DSN is the lib/pq connection string
	DSN string

	// MaxOpenConns caps the connection pool (default: 10)
	MaxOpenConns int

	// MaxIdleConns caps idle connections (default: 2)
	MaxIdleConns int

	// ConnMaxLifetime recycles connections (default: 5m)
	ConnMaxLifetime time.Duration
}

// PostgresBackend implements store.Backend on a single table:
//
//	entities(id text primary key, record jsonb)
//
// Each PutRecords batch is upserted in one transaction.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend opens the pool, checks connectivity and creates the
// table if needed.
func NewPostgresBackend(ctx context.Context, cfg Config) (*PostgresBackend, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 2
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL entity store")
	return &PostgresBackend{db: db}, nil
}

// PutRecords upserts the batch in one transaction.
func (b *PostgresBackend) PutRecords(ctx context.Context, records []store.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (id, record) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		data, err := store.EncodeRecord(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.ID, string(data)); err != nil {
			return fmt.Errorf("upsert entity %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteRecord deletes one row. Missing rows are not an error.
func (b *PostgresBackend) DeleteRecord(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM entities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete entity %s: %w", id, err)
	}
	return nil
}

// LoadRecords returns every row ordered by id.
func (b *PostgresBackend) LoadRecords(ctx context.Context) ([]store.Record, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, record FROM entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []store.Record
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		r, err := store.DecodeRecord(raw)
		if err != nil {
			logger.Warn("Skipping undecodable record %s: %v", id, err)
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return records, nil
}

// DB returns the underlying connection pool.
func (b *PostgresBackend) DB() *sql.DB {
	return b.db
}

// Close closes the connection pool.
func (b *PostgresBackend) Close() error {
	return b.db.Close()
}

var _ store.Backend = (*PostgresBackend)(nil)
