package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Database wraps the pgx connection pool.
type Database struct {
	Pool *pgxpool.Pool

	sqlOnce sync.Once
	sqlDB   *sql.DB
}

// New establishes a new connection pool against the provided DSN.
func New(ctx context.Context, dsn string) (*Database, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Database{Pool: pool}, nil
}

// Ping checks that the database is reachable.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// sqlHandle returns a database/sql view of the pool, opened on first use.
// It borrows pool connections and is closed by Close.
func (db *Database) sqlHandle() *sql.DB {
	db.sqlOnce.Do(func() {
		db.sqlDB = stdlib.OpenDBFromPool(db.Pool)
	})
	return db.sqlDB
}

// Close releases the database/sql handle, then drains the connection pool.
func (db *Database) Close() {
	if db == nil {
		return
	}
	if db.sqlDB != nil {
		_ = db.sqlDB.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
