package config

import (
	"flag"
	"os"
	"time"

	"github.com/kodbank/kodbank/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-u string   base URL of the KodBank API
//	-f string   local state database file
//	-t int      request timeout (in seconds)
//	-r int      retry attempts for idempotent calls
//	-l string   log level (debug, info, warn, error)
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-f", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "u", cfg.ServerURL, "base URL of the KodBank API")
	fs.StringVar(&cfg.StateDSN, "f", cfg.StateDSN, "local state database file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.Uint64Var(&cfg.RetryAttempts, "r", cfg.RetryAttempts, "retry attempts for idempotent calls")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
