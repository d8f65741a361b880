package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/medflow/stockroom/pkg/config"
	"github.com/medflow/stockroom/pkg/logger"
	_ "modernc.org/sqlite"
)

// Driver names registered with database/sql
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// queries are written with ? and rebound for postgres
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type txKey struct{}

// DB wraps sqlx.DB with additional functionality
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// OpenSQLite opens (creating if needed) an embedded database file.
// The pool is pinned to one connection so writers are serialized by the driver.
func OpenSQLite(path string, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	return &DB{DB: db, logger: log}, nil
}

// OpenPostgres creates a new PostgreSQL connection pool. Connections are
// made on first use, so an unreachable server is reported by the first query.
func OpenPostgres(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sqlx.Open(DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &DB{DB: db, logger: log}, nil
}

// Wrap adapts an existing sqlx handle, e.g. one backed by sqlmock
func Wrap(db *sqlx.DB, log *logger.Logger) *DB {
	return &DB{DB: db, logger: log}
}

// IsPostgres reports whether the handle talks to PostgreSQL
func (db *DB) IsPostgres() bool {
	return db.DriverName() == DriverPostgres
}

// Conn returns the transaction bound to ctx, or the pool when there is none.
// Repositories must go through Conn so work inside WithTx stays on one connection.
func (db *DB) Conn(ctx context.Context) sqlx.ExtContext {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return db.DB
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Health returns the health status of the database
func (db *DB) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "up",
		"driver": db.DriverName(),
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}

// Transaction executes a function within a transaction
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithTx runs fn inside a transaction stored in the context passed to fn.
// A context that already carries a transaction is reused as is.
func (db *DB) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if getTx(ctx) != nil {
		return fn(ctx)
	}
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// LockKey takes a transaction scoped advisory lock on key. It is a no-op
// outside PostgreSQL or outside a transaction.
func (db *DB) LockKey(ctx context.Context, key string) error {
	tx := getTx(ctx)
	if tx == nil || !db.IsPostgres() {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
		return fmt.Errorf("failed to lock key %s: %w", key, err)
	}
	return nil
}

// getTx extracts transaction from context if present
func getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
