// Package sqlstore implements store.Store over sqlx, for both the embedded
// SQLite file and PostgreSQL. Queries are written with ? placeholders and
// rebound for the active driver.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/config"
	"github.com/medflow/stockroom/pkg/database"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/logger"
)

var _ store.Store = (*Store)(nil)

// Store is the SQL backed store
type Store struct {
	db     *database.DB
	logger *logger.Logger

	schemaMu    sync.Mutex
	schemaReady atomic.Bool
}

// OpenSQLite opens the embedded database file and creates missing tables
func OpenSQLite(ctx context.Context, path string, log *logger.Logger) (*Store, error) {
	db, err := database.OpenSQLite(path, log)
	if err != nil {
		return nil, err
	}
	return New(ctx, db, log)
}

// OpenPostgres prepares a PostgreSQL pool. An unreachable server does not fail
// startup: the schema is then applied by the first query that gets through.
func OpenPostgres(ctx context.Context, cfg *config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	db, err := database.OpenPostgres(cfg, log)
	if err != nil {
		return nil, err
	}
	s := newStore(db, log)
	if err := s.ensureSchema(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("database unreachable at startup, schema deferred to first use")
	}
	return s, nil
}

// New wraps an open database and applies the schema
func New(ctx context.Context, db *database.DB, log *logger.Logger) (*Store, error) {
	s := newStore(db, log)
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Wrap adapts an open database without touching the schema
func Wrap(db *database.DB, log *logger.Logger) *Store {
	s := newStore(db, log)
	s.schemaReady.Store(true)
	return s
}

func newStore(db *database.DB, log *logger.Logger) *Store {
	return &Store{db: db, logger: log.WithComponent("sqlstore")}
}

// ensureSchema applies the schema once. A failed attempt is retried by the next caller.
func (s *Store) ensureSchema(ctx context.Context) error {
	if s.schemaReady.Load() {
		return nil
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady.Load() {
		return nil
	}
	if err := s.migrate(ctx); err != nil {
		return errors.Backend("apply schema", err)
	}
	s.schemaReady.Store(true)
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.db.IsPostgres() {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.logger.Debug().Str("driver", s.db.DriverName()).Msg("schema ready")
	return nil
}

// WithKeyLock runs fn in a transaction. On PostgreSQL a transaction scoped
// advisory lock on the key is taken first; on SQLite the single connection
// already serializes writers.
func (s *Store) WithKeyLock(ctx context.Context, key domain.Key, fn func(ctx context.Context) error) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		if err := s.db.LockKey(ctx, key.String()); err != nil {
			return errors.Backend("lock key", err)
		}
		return fn(ctx)
	})
	return database.MapError(err, "movement", "key lock")
}

// Health reports database reachability
func (s *Store) Health(ctx context.Context) map[string]string {
	return s.db.Health(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	return sqlx.GetContext(ctx, s.db.Conn(ctx), dest, s.db.Rebind(query), args...)
}

func (s *Store) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, s.db.Conn(ctx), dest, s.db.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s.db.Conn(ctx).ExecContext(ctx, s.db.Rebind(query), args...)
}

// execOne runs a write that must touch exactly one row
func (s *Store) execOne(ctx context.Context, resource, op, query string, args ...interface{}) error {
	result, err := s.exec(ctx, query, args...)
	if err != nil {
		return database.MapError(err, resource, op)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Backend(op, err)
	}
	if rows == 0 {
		return errors.NotFound(resource)
	}
	return nil
}
