package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "api:\n  token: test-token\n")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.API.Token)
	assert.Equal(t, "https://api.spacetraders.io/v2", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2.0, cfg.Scheduler.Rate)
	assert.Equal(t, 10, cfg.Scheduler.Burst)
	assert.Equal(t, 30*time.Second, cfg.Commander.EventTimeout)
	assert.Equal(t, 5, cfg.Commander.MaxRestarts)
	assert.Equal(t, 10, cfg.Commander.SnapshotEvery)
	assert.Equal(t, 90*time.Minute, cfg.Commander.ScanMaxAge)
	assert.Equal(t, 300_000, cfg.Capital.GateFloor)
	assert.Equal(t, 50_000, cfg.Capital.TradeMin)
	assert.Equal(t, 30_000, cfg.Capital.IdleThreshold)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, filepath.Join("data", "fleet.db"), cfg.Database.Path)
	assert.Equal(t, "127.0.0.1:9311", cfg.Metrics.Addr)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	path := writeConfig(t, "database:\n  type: sqlite\n")
	t.Setenv("SPACETRADERS_TOKEN", "env-token")
	t.Setenv("SPACETRADERS_CALLSIGN", "BADGER")
	t.Setenv("DATABASE_URL", "postgresql://fleet:secret@db:5432/fleet")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.API.Token)
	assert.Equal(t, "BADGER", cfg.Agent.Callsign)
	assert.Equal(t, "postgresql://fleet:secret@db:5432/fleet", cfg.Database.URL)
}

func TestLoadConfigParsesCommanderSection(t *testing.T) {
	path := writeConfig(t, `
commander:
  event_timeout: 45s
  scan_max_age: 2h
  skip_ships: [BADGER-3]
  gate_sources:
    fab_mats: X1-AB1-C3
  ships:
    badger-1:
      name: Hauler
      category: ship
    badger-2:
      category: disabled
capital:
  gate_floor: 120000
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Commander.EventTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Commander.ScanMaxAge)
	assert.Equal(t, 120_000, cfg.Capital.GateFloor)
	assert.True(t, cfg.Commander.SkipSet()["BADGER-3"])
	assert.Equal(t, map[string]string{"FAB_MATS": "X1-AB1-C3"}, cfg.Commander.GateSourceMap())
	assert.Equal(t, map[string]string{"badger-1": "Hauler"}, cfg.Commander.Names())
	assert.Equal(t, map[string]string{"badger-1": "ship", "badger-2": "disabled"}, cfg.Commander.Categories())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown database type", "database:\n  type: mysql\n"},
		{"bad ship category", "commander:\n  ships:\n    badger-1:\n      category: dragon\n"},
		{"negative rate", "scheduler:\n  rate: -1\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigOrDefaultFallsBack(t *testing.T) {
	cfg := config.LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 2.0, cfg.Scheduler.Rate)
}
