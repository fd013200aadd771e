package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// BackendRepo: драйвер "postgres" для gateway: прямое подключение к БД хостингового сервиса.
type BackendRepo struct {
	pool *pgxpool.Pool
}

// NewBackendRepo открывает пул. Соединение проверяется отдельно через Ping.
func NewBackendRepo(ctx context.Context, bc infra.BackendConfig) (*BackendRepo, error) {
	cfg, err := pgxpool.ParseConfig(bc.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if bc.MaxConns > 0 {
		cfg.MaxConns = bc.MaxConns
	}
	if bc.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = bc.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	return &BackendRepo{pool: pool}, nil
}

// Ping проверяет доступность базы при старте
func (r *BackendRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// EnsureSchema создает недостающие таблицы. Идемпотентно.
func (r *BackendRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *BackendRepo) Close() {
	r.pool.Close()
}
