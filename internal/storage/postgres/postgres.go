package postgres

import (
	"context"
	"sync/atomic"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage: Postgres реализация storage.Storage.
// Схема создаётся goose-миграциями (internal/dbmigrate).
type PostgresStorage struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
}

// New открывает пул соединений и проверяет доступность базы
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool}, nil
}

func (p *PostgresStorage) ready() error {
	if p == nil || p.pool == nil || p.closed.Load() {
		return storage.ErrNotInitialized
	}
	return nil
}

// Close закрывает пул соединений
func (p *PostgresStorage) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	if p.closed.CompareAndSwap(false, true) {
		p.pool.Close()
	}
	return nil
}

var _ storage.Storage = (*PostgresStorage)(nil)
