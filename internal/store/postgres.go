package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/magicworkstation/workstation-server-go/internal/config"
	"go.uber.org/zap"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	game_id      TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	version      BIGINT NOT NULL,
	player_names TEXT[] NOT NULL DEFAULT '{}',
	state        JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore is the pgx-backed SnapshotStore.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to Postgres, verifies the connection, and ensures
// the snapshot table exists.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, snapshotSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure snapshot schema: %w", err)
	}

	logger.Info("snapshot store connected",
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Save upserts the latest snapshot for a game. Writes arriving out of order
// (at-least-once delivery) are dropped by the version guard.
func (p *PostgresStore) Save(ctx context.Context, rec Record) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO game_snapshots (game_id, name, version, player_names, state, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id) DO UPDATE
		SET name = EXCLUDED.name,
		    version = EXCLUDED.version,
		    player_names = EXCLUDED.player_names,
		    state = EXCLUDED.state,
		    updated_at = EXCLUDED.updated_at
		WHERE game_snapshots.version <= EXCLUDED.version`,
		rec.GameID, rec.Name, int64(rec.Version), rec.PlayerNames, rec.State, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for game %s: %w", rec.GameID, err)
	}
	return nil
}

// Load returns the latest snapshot record for one game.
func (p *PostgresStore) Load(ctx context.Context, gameID string) (*Record, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT game_id, name, version, player_names, state, updated_at
		FROM game_snapshots WHERE game_id = $1`, gameID)
	rec, err := scanRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot for game %s: %w", gameID, err)
	}
	return rec, nil
}

// LoadAll returns every stored snapshot, ordered by game id, for session
// rehydration at startup.
func (p *PostgresStore) LoadAll(ctx context.Context) ([]Record, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT game_id, name, version, player_names, state, updated_at
		FROM game_snapshots ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

// Delete removes a game's snapshot row.
func (p *PostgresStore) Delete(ctx context.Context, gameID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM game_snapshots WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("failed to delete snapshot for game %s: %w", gameID, err)
	}
	return nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var version int64
	if err := row.Scan(&rec.GameID, &rec.Name, &version, &rec.PlayerNames, &rec.State, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Version = uint64(version)
	return &rec, nil
}
