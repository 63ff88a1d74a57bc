package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/tailgate/server/internal/config"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10, cfg.WindowSeconds)
	assert.Equal(t, "tailgating", cfg.Mode)
	assert.Equal(t, 7, cfg.HistoryRetentionDays)
	assert.True(t, cfg.DBEnabled)
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tailgate.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
window_seconds: 20
mode: linecrossing
netbox:
  enabled: true
  url: http://netbox.local/nbapi
  username: ops
  password: secret
redis:
  addr: 127.0.0.1:6379
`), 0o600))

	t.Setenv("TAILGATE_WINDOW_SECONDS", "30")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 30, cfg.WindowSeconds, "env wins over file")
	assert.Equal(t, "linecrossing", cfg.Mode)
	assert.True(t, cfg.NetBox.Enabled)
	assert.Equal(t, "ops", cfg.NetBox.Username)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, "tailgate:alerts", cfg.Redis.Stream, "unset keys keep defaults")
}

func TestLoad_FailSoftOnBadValues(t *testing.T) {
	t.Setenv("TAILGATE_WINDOW_SECONDS", "120")
	t.Setenv("TAILGATE_MODE", "party")
	t.Setenv("TAILGATE_ENV", "staging")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.WindowSeconds)
	assert.Equal(t, "tailgating", cfg.Mode)
	assert.Equal(t, "dev", cfg.Env)
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestFromEnv_DisableGRPCAndDB(t *testing.T) {
	t.Setenv("TAILGATE_GRPC_ADDR", "")
	t.Setenv("TAILGATE_DB_ENABLED", "false")

	cfg := config.FromEnv()

	assert.Empty(t, cfg.GRPCAddr)
	assert.False(t, cfg.DBEnabled)
}
