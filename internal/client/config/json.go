package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/decksync/internal/flagx"
	"github.com/dmitrijs2005/decksync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "24h" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	BaseURL             string         `json:"base_url"`
	DatabasePath        string         `json:"database_path"`
	UpdateCheckInterval timex.Duration `json:"update_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	AutoCheckUpdates    *bool          `json:"auto_check_updates"`
	AutoApplyUpdates    *bool          `json:"auto_apply_updates"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Fields absent from the file keep their current values. Panics on read or
// unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	applyJson(cfg, &jc)
}

func applyJson(cfg *Config, jc *JsonConfig) {
	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.UpdateCheckInterval.Duration != 0 {
		cfg.UpdateCheckInterval = time.Duration(jc.UpdateCheckInterval.Duration)
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.AutoCheckUpdates != nil {
		cfg.AutoCheckUpdates = *jc.AutoCheckUpdates
	}
	if jc.AutoApplyUpdates != nil {
		cfg.AutoApplyUpdates = *jc.AutoApplyUpdates
	}
}
