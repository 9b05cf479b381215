package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/focussync/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string     sync server base URL
//	-i int        online check interval in seconds
//	-d string     local database path
//	-q duration   quiet period before a debounced sync
//	-t duration   sync cycle timeout
//	-l string     log level
//
// Args are filtered with flagx.FilterArgs first so unrelated flags
// (-c for instance) do not trip the parser.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-q", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "sync server base URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.DurationVar(&cfg.DebounceInterval, "q", cfg.DebounceInterval, "quiet period before a debounced sync")
	fs.DurationVar(&cfg.SyncTimeout, "t", cfg.SyncTimeout, "sync cycle timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
