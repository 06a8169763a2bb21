package config

import "time"

// Config holds runtime settings for the KodBank terminal client.
//
// Fields:
//   - ServerURL: base URL of the KodBank HTTP API.
//   - StateDSN: path of the local SQLite file keeping the session token.
//   - RequestTimeout: per-request HTTP timeout.
//   - RetryAttempts: extra attempts for idempotent calls when the server is unreachable.
//   - LogLevel: level of diagnostic output written to stderr.
type Config struct {
	ServerURL      string
	StateDSN       string
	RequestTimeout time.Duration
	RetryAttempts  uint64
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5000"
	c.StateDSN = "kodbank.db"
	c.RequestTimeout = 5 * time.Second
	c.RetryAttempts = 2
	c.LogLevel = "warn"
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
