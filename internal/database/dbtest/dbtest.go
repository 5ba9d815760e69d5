// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/applied-api/internal/config"
	"github.com/javajoker/applied-api/internal/database"
)

// Config returns a SQLite configuration pointing into a fresh temp directory.
func Config(t testing.TB) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	}
}

// Open connects to an empty database without applying migrations.
func Open(t testing.TB) *gorm.DB {
	db, err := database.Initialize(Config(t))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

// New returns a fully migrated database that is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	db := Open(t)
	require.NoError(t, database.RunMigrations(db))
	return db
}
