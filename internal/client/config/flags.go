package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short and long forms):
//
//	-d, --data-dir string    data directory
//	-l, --log-level string   log level (debug, info, warn, error)
//	-b, --backend string     backup backend (http or s3)
//	-t, --timeout int        sync timeout in seconds
//
// os.Args is filtered with flagx.FilterArgs first so subcommand flags do
// not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-d", "--data-dir", "-l", "--log-level", "-b", "--backend", "-t", "--timeout",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	for _, name := range []string{"d", "data-dir"} {
		fs.StringVar(&cfg.DataDir, name, cfg.DataDir, "data directory")
	}
	for _, name := range []string{"l", "log-level"} {
		fs.StringVar(&cfg.LogLevel, name, cfg.LogLevel, "log level")
	}
	for _, name := range []string{"b", "backend"} {
		fs.StringVar(&cfg.Backup.Backend, name, cfg.Backup.Backend, "backup backend (http or s3)")
	}
	syncTimeout := int(cfg.SyncTimeout.Seconds())
	for _, name := range []string{"t", "timeout"} {
		fs.IntVar(&syncTimeout, name, syncTimeout, "sync timeout (in seconds)")
	}

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncTimeout = time.Duration(syncTimeout) * time.Second
}
