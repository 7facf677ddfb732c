package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "./data", cfg.Server.DBPath)
	require.Equal(t, 200, cfg.Retention.BatchSize)
	require.Equal(t, ":8080", cfg.Addr())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  address: "127.0.0.1"
  port: 9090
  db_path: "/tmp/pairchat"
security:
  rate_limit:
    rps: 2.5
    burst: 4
  api_keys:
    frontend: ["fe-key"]
logging:
  level: "debug"
retention:
  enabled: true
  cron: "0 3 * * *"
  period: "720h"
  batch_size: 50
feed:
  max_event_bytes: "64KB"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.Addr())
	require.Equal(t, "/tmp/pairchat", cfg.Server.DBPath)
	require.Equal(t, 2.5, cfg.Security.RateLimit.RPS)
	require.Equal(t, []string{"fe-key"}, cfg.Security.APIKeys.Frontend)
	require.Equal(t, 720*time.Hour, cfg.Retention.Period.Std())
	require.Equal(t, SizeBytes(64*1000), cfg.Feed.MaxEventBytes)
	require.True(t, cfg.Retention.Enabled)
}

func TestDurationBareIntegerIsSeconds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retention:\n  period: 90\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.Retention.Period.Std())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAIRCHAT_PORT", "7070")
	t.Setenv("PAIRCHAT_DB_PATH", "/tmp/env-db")
	t.Setenv("PAIRCHAT_FRONTEND_KEYS", "k1, k2,")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "/tmp/env-db", cfg.Server.DBPath)
	require.Equal(t, []string{"k1", "k2"}, cfg.Security.APIKeys.Frontend)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retention:\n  period: \"soon\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
