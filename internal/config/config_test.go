package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DB.Driver)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 20, cfg.Search.DefaultLimit)
	require.Equal(t, 100, cfg.Search.MaxLimit)
	require.Equal(t, "http", cfg.Transport.Mode)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
db:
  driver: postgres
  url: postgres://localhost/civicmatch
history:
  retention: 720h
log:
  level: debug
`), 0o600))

	t.Setenv("CIVICMATCH_CONFIG_PATH", path)
	t.Setenv("CIVICMATCH_LOG_LEVEL", "warn")
	t.Setenv("CIVICMATCH_TELEMETRY_RATE", "2.5")
	t.Setenv("CIVICMATCH_DASHBOARD_STREAM_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.DB.Driver)
	require.Equal(t, 720*time.Hour, cfg.History.Retention)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, 2.5, cfg.Telemetry.RatePerSecond)
	require.Equal(t, 5*time.Second, cfg.Dashboard.StreamInterval)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CIVICMATCH_SERVER_PORT=7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CIVICMATCH_SERVER_PORT") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CIVICMATCH_SERVER_PORT", "eighty")

	_, err := Load()
	require.ErrorContains(t, err, "CIVICMATCH_SERVER_PORT")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown driver":       func(c *Config) { c.DB.Driver = "mysql" },
		"postgres without url": func(c *Config) { c.DB.Driver = "postgres" },
		"bad port":             func(c *Config) { c.Server.Port = 0 },
		"bad mode":             func(c *Config) { c.Transport.Mode = "grpc" },
		"auth without secret":  func(c *Config) { c.Auth.Enabled = true },
		"max below default":    func(c *Config) { c.Search.MaxLimit = 5 },
		"fast stream":          func(c *Config) { c.Dashboard.StreamInterval = time.Millisecond },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, Default().Validate())
}
