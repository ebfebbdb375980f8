package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HOST", "PORT", "ENV", "RANKINGS_PATH", "ALLOWED_ORIGINS", "TICK_INTERVAL", "DATABASE_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "top_10000_domains.txt", cfg.RankingsPath)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://play.example.com ,")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("REAP_INTERVAL", "not-a-duration")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"http://localhost:3000", "https://play.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, time.Minute, cfg.ReapInterval)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("RANKINGS_PATH", "")
	os.Unsetenv("RANKINGS_PATH")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RANKINGS_PATH=/data/top.txt\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RANKINGS_PATH") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/top.txt", cfg.RankingsPath)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())
}
