// Package config loads runtime configuration for the focussync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "online_check_interval": "3s",
//	  "database_path": "focussync.db",
//	  "debounce_interval": "3s",
//	  "status_display_interval": "2s",
//	  "sync_timeout": "30s",
//	  "log_level": "warn"
//	}
package config
