package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "music.db")

	gdb, err := Open(DriverSQLite, dsn, gormlogger.Silent)
	require.NoError(t, err)
	defer CloseGormDB(gdb)

	require.NoError(t, AutoMigrateModels(gdb))
	for _, table := range []string{"users", "songs", "favorites"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
	assert.True(t, gdb.Migrator().HasIndex("favorites", "idx_favorites_user_song"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("postgres", "postgres://localhost", gormlogger.Silent)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNormalizeMySQLDSN(t *testing.T) {
	dsn, err := normalizeMySQLDSN("root:secret@tcp(127.0.0.1:3306)/musicapp")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "clientFoundRows=true")

	_, err = normalizeMySQLDSN("not a dsn")
	assert.Error(t, err)
}
