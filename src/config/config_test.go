package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

const validYAML = `
name: "mt5-gateway"
host: "127.0.0.1"
port: 8000
log_level: "INFO"

terminal:
  bridge_addr: "127.0.0.1:9900"
  use_sim: false

accounts:
  demo:
    - login: 1001
      password: "demo"
      server: "Demo-Server"
      magic: 42

storage:
  db_type: "sqlite"
  db_path: "test.db"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigAppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "mt5-gateway", cfg.Name)
	assert.Equal(t, 8000, cfg.Port)

	// Unset knobs fall back to defaults.
	assert.Equal(t, 5, cfg.WS.IntervalSeconds)
	assert.Equal(t, 4, cfg.WS.FetchWorkers)
	assert.Equal(t, 5, cfg.Terminal.ConnectTimeoutSeconds)
	assert.Equal(t, 20.0, cfg.Terminal.OpsPerSecond)
	assert.Equal(t, 30, cfg.Storage.RetentionDays)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty name", `
host: "127.0.0.1"
port: 8000
terminal: {use_sim: true}
storage: {db_type: "sqlite", db_path: "x.db"}
`},
		{"privileged port", `
name: "gw"
host: "127.0.0.1"
port: 80
terminal: {use_sim: true}
storage: {db_type: "sqlite", db_path: "x.db"}
`},
		{"no bridge addr without sim", `
name: "gw"
host: "127.0.0.1"
port: 8000
terminal: {use_sim: false}
storage: {db_type: "sqlite", db_path: "x.db"}
`},
		{"sqlite without path", `
name: "gw"
host: "127.0.0.1"
port: 8000
terminal: {use_sim: true}
storage: {db_type: "sqlite"}
`},
		{"postgres without connection string", `
name: "gw"
host: "127.0.0.1"
port: 8000
terminal: {use_sim: true}
storage: {db_type: "postgres"}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MT5_LOGIN", "99999")
	t.Setenv("MT5_PASSWORD", "secret")
	t.Setenv("MT5_SERVER", "Live-Server")
	t.Setenv("MT5_BRIDGE_ADDR", "10.0.0.5:9900")

	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, int64(99999), cfg.Accounts.Live.Login)
	assert.Equal(t, "secret", cfg.Accounts.Live.Password)
	assert.Equal(t, "Live-Server", cfg.Accounts.Live.Server)
	assert.Equal(t, "10.0.0.5:9900", cfg.Terminal.BridgeAddr)
}

func TestAccountSelection(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	demo, err := cfg.Account(false)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), demo.Login)
	assert.Equal(t, int64(42), demo.Magic)

	// Live account is not configured in the fixture.
	_, err = cfg.Account(true)
	assert.Error(t, err)
}
