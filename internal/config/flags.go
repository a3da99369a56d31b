package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophjournal/internal/flagx"
)

var ownFlags = []string{"-d", "-m", "-l", "-p", "-w", "-v"}

// parseFlags overrides cfg with the short flags this package owns:
//
//	-d string   data directory (database, media, logs)
//	-m string   media backend: local, memory or s3
//	-l string   log file
//	-p int      entries per page
//	-w string   inbox directory watched for dropped import files
//	-v string   log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.MediaBackend, "m", cfg.MediaBackend, "media backend (local, memory, s3)")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "entries per page")
	fs.StringVar(&cfg.InboxDir, "w", cfg.InboxDir, "inbox directory to watch")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if cfg.PageSize <= 0 {
		return fmt.Errorf("parse flags: page size must be positive, got %d", cfg.PageSize)
	}
	return nil
}
