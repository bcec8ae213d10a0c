package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"holdem-server/internal/apperrors"
)

// PGGateway stores blobs in a single key/value table. Each key has a
// single writer (the owning table actor), so plain last-writer-wins
// upserts are sufficient.
type PGGateway struct {
	Pool *pgxpool.Pool
}

// NewPG dials the cache database and ensures the backing table exists.
func NewPG(ctx context.Context, dsn string) (*PGGateway, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.External, "connect cache", err)
	}
	g := &PGGateway{Pool: pool}
	if err := g.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return g, nil
}

func (g *PGGateway) ensureSchema(ctx context.Context) error {
	_, err := g.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS hand_cache (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return apperrors.Wrap(apperrors.External, "ensure cache schema", err)
	}
	return nil
}

func (g *PGGateway) Close() {
	if g.Pool != nil {
		g.Pool.Close()
	}
}

func (g *PGGateway) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return g.Pool.Ping(ctx)
}

func (g *PGGateway) Save(ctx context.Context, key string, value []byte) error {
	_, err := g.Pool.Exec(ctx, `
		INSERT INTO hand_cache (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return apperrors.Wrap(apperrors.External, "cache save", err)
	}
	return nil
}

func (g *PGGateway) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := g.Pool.QueryRow(ctx, `SELECT value FROM hand_cache WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.NotFound, "no cached state for key "+key)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.External, "cache load", err)
	}
	return value, nil
}

func (g *PGGateway) Delete(ctx context.Context, key string) error {
	_, err := g.Pool.Exec(ctx, `DELETE FROM hand_cache WHERE key = $1`, key)
	if err != nil {
		return apperrors.Wrap(apperrors.External, "cache delete", err)
	}
	return nil
}

func (g *PGGateway) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := g.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM hand_cache WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(apperrors.External, "cache exists", err)
	}
	return exists, nil
}

func (g *PGGateway) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := g.Pool.Query(ctx, `SELECT key FROM hand_cache WHERE key LIKE $1 || '%' ORDER BY key`, prefix)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.External, "cache list", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, apperrors.Wrap(apperrors.External, "cache list scan", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.External, "cache list rows", err)
	}
	return keys, nil
}
