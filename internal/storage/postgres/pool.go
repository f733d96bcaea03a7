package postgres

import (
	"context"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"time"
)

// NewPool parses the DSN, applies the pool settings and verifies the connection.
func NewPool(cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse dsn: %w", err)
	}
	if cfg.Postgres.Pool.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.Pool.MaxConns
	}
	if cfg.Postgres.Pool.MinConns > 0 {
		poolCfg.MinConns = cfg.Postgres.Pool.MinConns
	}
	if cfg.Postgres.Pool.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Postgres.Pool.ConnMaxLifetime
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping: %w", err)
	}
	return pool, nil
}
