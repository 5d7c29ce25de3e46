package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	cfg := Load()
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 12*time.Hour, cfg.AccessTTL)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
	assert.Equal(t, uint(10), cfg.StartupRetries)
}

func TestLoadFromEnvironmentAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CLOUDINARY_CLOUD_NAME=school\nPORT=9999\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("PORT", "8500")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("ACCESS_TTL", "30m")
	t.Setenv("RATE_LIMIT_PER_MIN", "5")
	t.Cleanup(func() { os.Unsetenv("CLOUDINARY_CLOUD_NAME") })

	cfg := Load()
	assert.Equal(t, "8500", cfg.HTTPPort, "process env wins over .env")
	assert.Equal(t, "school", cfg.Cloudinary.CloudName)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 5, cfg.RateLimitPerMin)
}

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()
	assert.True(t, NewLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("").Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("error").Enabled(ctx, slog.LevelWarn))
}
