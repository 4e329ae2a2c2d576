package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DATABASE_URL", "JWT_EXPIRES_IN", "BCRYPT_COST", "STORAGE_DRIVER", "CACHE_ENABLED", "MAX_UPLOAD_MB"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "data/musicapp.db", cfg.DatabaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.CacheEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DATABASE_URL", "root:pw@tcp(db:3306)/music?parseTime=true")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("LOG_COMPRESS", "not-a-bool")

	cfg := Load()

	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "root:pw@tcp(db:3306)/music?parseTime=true", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 4, cfg.RedisDB)
	assert.False(t, cfg.LogCompress, "unparseable booleans fall back to the default")
}
