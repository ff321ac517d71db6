// Package config loads runtime configuration for the DeckSync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string   base URL of the deck service API
//	-d string   path to the local tracking database
//	-i int      update check interval (hours)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "24h" or integer nanoseconds:
//
//	{
//	  "base_url": "https://decks.example.com/api",
//	  "database_path": "decksync.db",
//	  "update_check_interval": "24h",
//	  "request_timeout": "30s",
//	  "auto_check_updates": true,
//	  "auto_apply_updates": false
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
