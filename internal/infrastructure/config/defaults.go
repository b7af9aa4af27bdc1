package config

import (
	"path/filepath"
	"time"
)

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	// API defaults
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.spacetraders.io/v2"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}

	// Scheduler defaults match the upstream API budget of 2 req/s with
	// bursts of 10
	if cfg.Scheduler.Rate == 0 {
		cfg.Scheduler.Rate = 2.0
	}
	if cfg.Scheduler.Burst == 0 {
		cfg.Scheduler.Burst = 10
	}

	// Commander defaults
	if cfg.Commander.EventTimeout == 0 {
		cfg.Commander.EventTimeout = 30 * time.Second
	}
	if cfg.Commander.MaxRestarts == 0 {
		cfg.Commander.MaxRestarts = 5
	}
	if cfg.Commander.SnapshotEvery == 0 {
		cfg.Commander.SnapshotEvery = 10
	}
	if cfg.Commander.ScanMaxAge == 0 {
		cfg.Commander.ScanMaxAge = 90 * time.Minute
	}

	// Capital defaults
	if cfg.Capital.GateFloor == 0 {
		cfg.Capital.GateFloor = 300_000
	}
	if cfg.Capital.TradeMin == 0 {
		cfg.Capital.TradeMin = 50_000
	}
	if cfg.Capital.IdleThreshold == 0 {
		cfg.Capital.IdleThreshold = 30_000
	}

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.DataDir, "fleet.db")
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "spacetraders"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "spacetraders"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Metrics defaults
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = "127.0.0.1:9311"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
