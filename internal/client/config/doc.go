// Package config loads runtime configuration for the KodBank terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config (or KODBANK_CONFIG).
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:5000",
//	  "state_dsn": "kodbank.db",
//	  "request_timeout": "5s",
//	  "retry_attempts": 2,
//	  "log_level": "warn"
//	}
package config
