package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS prefs;
CREATE TABLE IF NOT EXISTS prefs.string_slots (
	slot_key   TEXT PRIMARY KEY,
	items      TEXT[] NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// PGExecutor is the subset of pgxpool.Pool the slot needs.
type PGExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGSlot stores each array as a TEXT[] row in prefs.string_slots.
type PGSlot struct {
	db     PGExecutor
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres opens a pool, applies the schema and returns the slot.
func NewPostgres(ctx context.Context, url string, poolCfg PGPoolConfig, logger *zap.Logger) (*PGSlot, error) {
	if url == "" {
		return nil, errors.New("postgres store: DATABASE_URL is required")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if poolCfg.MaxConns > 0 {
		cfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		cfg.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = poolCfg.MaxConnLifetime
	}
	if poolCfg.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}
	if poolCfg.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = poolCfg.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	slot := NewPostgresFromExecutor(pool, logger)
	slot.pool = pool
	if err := slot.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return slot, nil
}

// NewPostgresFromExecutor wraps any executor, such as a pool or a transaction.
func NewPostgresFromExecutor(db PGExecutor, logger *zap.Logger) *PGSlot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGSlot{db: db, logger: logger}
}

func (s *PGSlot) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres store: apply schema: %w", err)
	}
	return nil
}

func (s *PGSlot) Load(ctx context.Context, key string) ([]string, bool, error) {
	var items []string
	err := s.db.QueryRow(ctx,
		`SELECT items FROM prefs.string_slots WHERE slot_key = $1`, key).Scan(&items)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cloneStrings(items), true, nil
}

func (s *PGSlot) Save(ctx context.Context, key string, values []string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO prefs.string_slots (slot_key, items, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot_key)
		DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at;
	`, key, cloneStrings(values))
	if err != nil {
		s.logger.Error("store.pg.upsert_failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

func (s *PGSlot) HealthCheck(ctx context.Context) error {
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
		return nil
	}
	if s.db == nil {
		return fmt.Errorf("postgres unavailable")
	}
	return nil
}

func (s *PGSlot) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
