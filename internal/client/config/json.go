package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/focussync/internal/flagx"
	"github.com/dmitrijs2005/focussync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// use timex.Duration so the file can say "3s" or give nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr    string         `json:"server_endpoint_addr"`
	OnlineCheckInterval   timex.Duration `json:"online_check_interval"`
	DatabasePath          string         `json:"database_path"`
	DebounceInterval      timex.Duration `json:"debounce_interval"`
	StatusDisplayInterval timex.Duration `json:"status_display_interval"`
	SyncTimeout           timex.Duration `json:"sync_timeout"`
	LogLevel              string         `json:"log_level"`
}

// parseJson overlays cfg with the non-empty values of the file named by -c
// or -config. Without such a flag nothing happens. Read and decode errors
// panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.DebounceInterval, jc.DebounceInterval)
	setDuration(&cfg.StatusDisplayInterval, jc.StatusDisplayInterval)
	setDuration(&cfg.SyncTimeout, jc.SyncTimeout)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
