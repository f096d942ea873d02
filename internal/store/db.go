// Package store provides persistent storage for the board, backed by
// SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/soyeahso/queueboard/internal/domain"
	"github.com/soyeahso/queueboard/internal/logging"
)

// DB wraps a database connection with the board schema and dialect.
type DB struct {
	sql     *sql.DB
	dialect dialect
	target  Target
	seed    []string
	log     *logging.Logger
}

// Option configures a DB at open time.
type Option func(*DB)

// WithSeedAgents overrides the agents created in an empty board.
func WithSeedAgents(names []string) Option {
	return func(db *DB) {
		if len(names) > 0 {
			db.seed = names
		}
	}
}

// Open connects to the target database, ensures the schema exists and
// seeds default agents when the board is empty. Use a SQLite target with
// DSN ":memory:" for an in-memory database (useful for tests).
func Open(ctx context.Context, target Target, log *logging.Logger, opts ...Option) (*DB, error) {
	sqlDB, err := openDriver(ctx, target)
	if err != nil {
		return nil, err
	}

	db := &DB{
		sql:     sqlDB,
		dialect: dialect{driver: target.Driver},
		target:  target,
		seed:    domain.DefaultAgents,
		log:     log.Sub("store"),
	}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.SeedIfEmpty(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db.log.Info().Str("driver", target.Driver).Str("db", target.Redacted()).Msg("database opened")
	return db, nil
}

func openDriver(ctx context.Context, target Target) (*sql.DB, error) {
	switch target.Driver {
	case DriverSQLite:
		return openSQLite(target.DSN)
	case DriverPostgres:
		sqlDB, err := sql.Open("postgres", target.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return sqlDB, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", target.Driver)
	}
}

func openSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// One connection: writers serialize, and an in-memory database is not
	// split across pool connections.
	sqlDB.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return sqlDB, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.log.Info().Msg("closing database")
	return db.sql.Close()
}

// Target returns the database the DB was opened against.
func (db *DB) Target() Target {
	return db.target
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// withTx runs fn inside a transaction. Any error from fn rolls the whole
// transaction back.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.log.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// exec runs a rebound statement inside tx.
func (db *DB) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.ExecContext(ctx, db.dialect.rebind(query), args...)
}

// queryRow runs a rebound single-row query inside tx.
func (db *DB) queryRow(ctx context.Context, tx *sql.Tx, query string, args ...any) *sql.Row {
	return tx.QueryRowContext(ctx, db.dialect.rebind(query), args...)
}
