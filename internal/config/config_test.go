package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stockflow")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int32(20), cfg.DBMaxConns)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"DATABASE_URL=postgres://file/stockflow\nJWT_SECRET=from-file-secret-value\nAPP_ENV=production\n",
	), 0o600))
	t.Setenv("DATABASE_URL", "postgres://env/stockflow")
	// godotenv only sets variables that are absent; register cleanup for the rest
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	t.Setenv("APP_ENV", "")
	require.NoError(t, os.Unsetenv("APP_ENV"))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "postgres://env/stockflow", cfg.DatabaseURL)
	assert.Equal(t, "from-file-secret-value", cfg.JWTSecret)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stockflow")
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))

	assert.NoError(t, err)
}

func TestLoad_Rejections(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stockflow")
	t.Setenv("JWT_SECRET", "short")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("DB_MIN_CONNS", "30")
	_, err = Load("")
	assert.Error(t, err)
}
