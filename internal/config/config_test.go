package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults проверяет значения по умолчанию при отсутствии .env файла
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "session", cfg.Auth.SessionCookie)
	assert.Equal(t, config.DedupBackendMemory, cfg.Analytics.DedupBackend)
	assert.Equal(t, 10*time.Second, cfg.Analytics.DedupTTL)
	assert.Equal(t, 30, cfg.Analytics.RetentionDays)
	assert.Equal(t, 500, cfg.Analytics.LogQueryMaxLimit)
	assert.Equal(t, float64(10), cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.BurstSize)
}

// TestLoad_FromFile проверяет чтение .env файла и приоритет окружения
func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "SESSION_SECRET=file-secret\nDB_NAME=blog\nDEDUP_TTL=3s\nDEDUP_BACKEND=redis\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DB_NAME", "from-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-secret", cfg.Auth.SessionSecret)
	assert.Equal(t, "from-env", cfg.DB.Name)
	assert.Equal(t, 3*time.Second, cfg.Analytics.DedupTTL)
	assert.Equal(t, config.DedupBackendRedis, cfg.Analytics.DedupBackend)
}

// TestLoad_Validation проверяет отказ при некорректной конфигурации
func TestLoad_Validation(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("без секрета сессии", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "")
		_, err := config.Load(missing)
		assert.Error(t, err)
	})

	t.Run("неизвестный backend", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "x")
		t.Setenv("DEDUP_BACKEND", "memcached")
		_, err := config.Load(missing)
		assert.Error(t, err)
	})

	t.Run("неизвестная зона", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "x")
		t.Setenv("STATS_TIMEZONE", "Mars/Olympus")
		_, err := config.Load(missing)
		assert.Error(t, err)
	})
}

func TestDBConfig_URLs(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss", Name: "blog"}

	assert.Equal(t, "postgres://u:p%40ss@db:5432/blog?sslmode=disable", db.DSN())
	assert.Equal(t, "pgx5://u:p%40ss@db:5432/blog?sslmode=disable", db.MigrateURL())
}
