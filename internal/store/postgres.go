package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the table Postgres stores into.
const Schema = `CREATE TABLE IF NOT EXISTS kv_store (
	session_id UUID NOT NULL,
	key TEXT NOT NULL,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (session_id, key)
)`

// Postgres is a KV scoped to one session id, so several sessions can share a database.
type Postgres struct {
	pool    *pgxpool.Pool
	session uuid.UUID
}

// ConnectPostgres establishes a connection pool and ensures the table exists
func ConnectPostgres(ctx context.Context, databaseURL string, session uuid.UUID) (*Postgres, error) {
	if session == uuid.Nil {
		return nil, fmt.Errorf("session id is required")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}

	return &Postgres{pool: pool, session: session}, nil
}

// Session returns the id that scopes every row this store touches.
func (p *Postgres) Session() uuid.UUID {
	return p.session
}

// Close closes the connection pool
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE session_id = $1 AND key = $2`,
		p.session, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO kv_store (session_id, key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id, key) DO UPDATE SET value = $3, updated_at = NOW()`,
		p.session, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SetMany upserts every given key in one transaction.
func (p *Postgres) SetMany(ctx context.Context, values map[string][]byte) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for key, value := range values {
		_, err := tx.Exec(ctx,
			`INSERT INTO kv_store (session_id, key, value)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (session_id, key) DO UPDATE SET value = $3, updated_at = NOW()`,
			p.session, key, value,
		)
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM kv_store WHERE session_id = $1 AND key = $2`,
		p.session, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
