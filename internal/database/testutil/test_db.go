// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/database"
)

// TestDBOption customises MustOpenTestDB.
type TestDBOption func(*testDB)

type testDB struct {
	migrate bool
	seeds   []func(*gorm.DB) error
}

// WithAutoMigrate creates the schema before the handle is returned.
func WithAutoMigrate() TestDBOption {
	return func(o *testDB) { o.migrate = true }
}

// WithSeed runs fn after migration. Seeds run in the order given.
func WithSeed(fn func(*gorm.DB) error) TestDBOption {
	return func(o *testDB) { o.seeds = append(o.seeds, fn) }
}

// MustOpenTestDB opens an in-memory SQLite database private to t. Each call
// gets its own named shared-cache database, closed on cleanup.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	var o testDB
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	if o.migrate {
		require.NoError(t, database.AutoMigrate(db))
	}
	for _, seed := range o.seeds {
		require.NoError(t, seed(db))
	}
	return db
}
