package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/decksync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   base URL of the deck service API (default from Config)
//	-d string   path to the local tracking database (default from Config)
//	-i int      update check interval in hours (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "s", cfg.BaseURL, "base URL of the deck service API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local tracking database")
	updateCheckInterval := fs.Int("i", int(cfg.UpdateCheckInterval.Hours()), "update check interval (in hours)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.UpdateCheckInterval = time.Duration(*updateCheckInterval) * time.Hour
}
