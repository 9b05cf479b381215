package config

import (
	"log/slog"
	"os"
	"time"
)

// Config holds runtime settings for the focussync CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the sync server.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath: location of the local SQLite replica.
//   - DebounceInterval: quiet period after the last local edit before a sync.
//   - StatusDisplayInterval: how long "saved"/"error" stay visible.
//   - SyncTimeout: upper bound for one reconciliation cycle.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerEndpointAddr    string
	OnlineCheckInterval   time.Duration
	DatabasePath          string
	DebounceInterval      time.Duration
	StatusDisplayInterval time.Duration
	SyncTimeout           time.Duration
	LogLevel              string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "focussync.db"
	c.DebounceInterval = 3 * time.Second
	c.StatusDisplayInterval = 2 * time.Second
	c.SyncTimeout = 30 * time.Second
	c.LogLevel = "warn"
}

// Level maps LogLevel to a slog level; unknown names fall back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	args := os.Args[1:]
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
