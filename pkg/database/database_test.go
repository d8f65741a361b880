package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	return db
}

func TestOpenSQLite_Health(t *testing.T) {
	db := openTestDB(t)

	status := db.Health(context.Background())
	assert.Equal(t, "up", status["status"])
	assert.Equal(t, DriverSQLite, status["driver"])
	assert.False(t, db.IsPostgres())
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(ctx context.Context) error {
		_, err := db.Conn(ctx).ExecContext(ctx, db.Rebind(`INSERT INTO items (name) VALUES (?)`), "kept")
		return err
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := db.Conn(ctx).ExecContext(ctx, db.Rebind(`INSERT INTO items (name) VALUES (?)`), "dropped"); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	var names []string
	require.NoError(t, db.Select(&names, `SELECT name FROM items ORDER BY id`))
	assert.Equal(t, []string{"kept"}, names)
}

func TestWithTx_NestedReusesTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// a second BEGIN on the single sqlite connection would block, so nesting must reuse the tx
	err := db.WithTx(ctx, func(outer context.Context) error {
		return db.WithTx(outer, func(inner context.Context) error {
			assert.Same(t, db.Conn(outer), db.Conn(inner))
			return db.LockKey(inner, "1|2|-|-")
		})
	})
	require.NoError(t, err)
}

func TestMapError(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO items (name) VALUES ('dup')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO items (name) VALUES ('dup')`)
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err))
	assert.True(t, errors.IsConflict(MapError(err, "study", "create study")))

	assert.True(t, errors.IsNotFound(MapError(sql.ErrNoRows, "study", "get study")))
	assert.True(t, errors.IsBackend(MapError(fmt.Errorf("connection refused"), "study", "list studies")))
	assert.NoError(t, MapError(nil, "study", "noop"))
}
