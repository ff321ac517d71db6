package config

import "time"

// Config holds runtime settings for the DeckSync CLI.
//
// Fields:
//   - BaseURL: root URL of the deck service API.
//   - DatabasePath: location of the local tracking database.
//   - UpdateCheckInterval: how often the periodic update scan may hit the
//     service; values below one hour are raised to one hour at wiring time.
//   - AutoCheckUpdates: scan for updates when the CLI starts.
//   - AutoApplyUpdates: apply every pending update right after a scan finds
//     them, without asking.
//   - RequestTimeout: per-request timeout for API calls.
type Config struct {
	BaseURL             string
	DatabasePath        string
	UpdateCheckInterval time.Duration
	RequestTimeout      time.Duration
	AutoCheckUpdates    bool
	AutoApplyUpdates    bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://decks.example.com/api"
	c.DatabasePath = "decksync.db"
	c.UpdateCheckInterval = 24 * time.Hour
	c.RequestTimeout = 30 * time.Second
	c.AutoCheckUpdates = true
	c.AutoApplyUpdates = false
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
