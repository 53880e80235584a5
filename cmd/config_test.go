package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.State.Driver)
	assert.Equal(t, 8082, cfg.HTTP.Port)
	assert.Equal(t, time.Second, cfg.Simulation.TickDuration)
	assert.True(t, cfg.Simulation.EconomyEnabled)
	assert.Equal(t, "text", cfg.Logging.Format)

	policy := cfg.CommandPolicy()
	assert.Equal(t, uint64(1000), policy.InventoryTTL)
	assert.Equal(t, uint64(10), policy.RouteCacheTTL)
	assert.InDelta(t, 0.2, policy.RestockThreshold, 1e-9)
	assert.InDelta(t, 1, policy.RouteProfile.RiskTolerance, 1e-9)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9000
simulation:
  tick_duration: 500ms
  recording: false
policy:
  route_cache_ttl: 3s
state:
  driver: sqlite
  sqlite:
    path: state.db
logging:
  format: json
`)
	t.Setenv("LOGI_HTTP_PORT", "9100")
	t.Setenv("LOGI_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Simulation.Recording)
	assert.Equal(t, uint64(6), cfg.CommandPolicy().RouteCacheTTL)

	db := cfg.DatabaseConfig()
	assert.Equal(t, "sqlite", db.Driver)
	assert.Equal(t, "state.db", db.Path)
	assert.Equal(t, "0.0.0.0:9100", cfg.Address())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "state: {driver: mongo}"},
		{"threshold above fill target", "policy: {restock_threshold: 0.6, restock_fill_target: 0.5}"},
		{"negative risk tolerance", "policy: {risk_tolerance: -0.1}"},
		{"bad log format", "logging: {format: xml}"},
		{"postgres without host", "state: {driver: postgres, postgres: {host: ''}}"},
		{"zero tick duration", "simulation: {tick_duration: 0s}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
