package database

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSNDefaults(t *testing.T) {
	dsn, err := postgresDSN(Config{User: "clothingloop", Name: "clothingloop"})
	require.NoError(t, err)
	require.Equal(t, "postgres://clothingloop@localhost:5432/clothingloop?sslmode=disable", dsn)
}

func TestPostgresDSNParsesBack(t *testing.T) {
	dsn, err := postgresDSN(Config{
		Host:     "db.example.com",
		Port:     6543,
		User:     "loop",
		Password: "p@ss word",
		Name:     "loops",
		Options:  map[string]string{"search_path": "public"},
	})
	require.NoError(t, err)

	parsed, err := pgconn.ParseConfig(dsn)
	require.NoError(t, err)
	require.Equal(t, "db.example.com", parsed.Host)
	require.EqualValues(t, 6543, parsed.Port)
	require.Equal(t, "loop", parsed.User)
	require.Equal(t, "p@ss word", parsed.Password)
	require.Equal(t, "loops", parsed.Database)
	require.Equal(t, "public", parsed.RuntimeParams["search_path"])
}

func TestPostgresDSNRejectsInvalidInput(t *testing.T) {
	_, err := postgresDSN(Config{})
	require.EqualError(t, err, "postgres configuration requires user and database name")

	_, err = postgresDSN(Config{DSN: "postgres://%zz"})
	require.ErrorContains(t, err, "invalid postgres dsn")
}

func TestMySQLDSNParsesBack(t *testing.T) {
	dsn, err := mysqlDSN(Config{
		Host:     "db.example.com",
		Port:     3307,
		User:     "loop",
		Password: "secret",
		Name:     "loops",
		Options:  map[string]string{"sql_mode": "TRADITIONAL"},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "loop:secret@tcp(db.example.com:3307)/loops?"), dsn)
	require.Contains(t, dsn, "charset=utf8mb4")

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	require.True(t, parsed.ParseTime)
	require.Equal(t, time.UTC, parsed.Loc)
	require.Equal(t, "TRADITIONAL", parsed.Params["sql_mode"])
}

func TestMySQLDSNDefaultsAndErrors(t *testing.T) {
	dsn, err := mysqlDSN(Config{User: "loop", Name: "loops"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "loop@tcp(127.0.0.1:3306)/loops?"), dsn)

	_, err = mysqlDSN(Config{Host: "localhost"})
	require.EqualError(t, err, "mysql configuration requires user and database name")

	_, err = mysqlDSN(Config{DSN: "not a dsn"})
	require.ErrorContains(t, err, "invalid mysql dsn")
}

func TestSQLiteDSNCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "loops.sqlite")

	dsn, err := sqliteDSN(Config{Path: path})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "file:"+filepath.ToSlash(path)+"?"), dsn)
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.DirExists(t, filepath.Dir(path))

	memory, err := sqliteDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.Contains(t, memory, "memory")
}

func TestOpenSQLiteFileAppliesPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.sqlite")
	db, err := Open(Config{Driver: "SQLite", Path: path, MaxOpenConns: 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, 3, sqlDB.Stats().MaxOpenConnections)

	var enabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	require.Equal(t, 1, enabled)
}

func TestDialectorNames(t *testing.T) {
	for driver, want := range map[string]string{
		"":           "sqlite",
		"postgresql": "postgres",
		"mysql":      "mysql",
	} {
		require.Equal(t, want, driverName(driver))
	}
	_, err := Dialector(Config{Driver: "oracle"})
	require.EqualError(t, err, `unsupported database driver "oracle"`)
}
