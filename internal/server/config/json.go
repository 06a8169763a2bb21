package config

import (
	"encoding/json"
	"os"

	"github.com/kodbank/kodbank/internal/flagx"
	"github.com/kodbank/kodbank/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations accept
// either strings such as "1h" or integer nanoseconds. Fields left out of the
// file keep the value they already had.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC        string         `json:"endpoint_addr_grpc"`
	DatabaseDriver          string         `json:"database_driver"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	DefaultBalance          string         `json:"default_balance"`
	BcryptCost              int            `json:"bcrypt_cost"`
	CookieSecure            *bool          `json:"cookie_secure"`
	AllowedOrigins          []string       `json:"allowed_origins"`
	LogBackend              string         `json:"log_backend"`
	LogLevel                string         `json:"log_level"`
	KafkaBrokers            []string       `json:"kafka_brokers"`
	KafkaAuditTopic         string         `json:"kafka_audit_topic"`
	SessionSweepSchedule    *string        `json:"session_sweep_schedule"`
}

// parseJson loads configuration values from the JSON file named by -c/-config
// (or $KODBANK_CONFIG) into config. It does nothing when no file is named and
// panics if the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.DefaultBalance, c.DefaultBalance)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.KafkaAuditTopic, c.KafkaAuditTopic)

	if c.SessionValidityDuration.Duration > 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.KafkaBrokers != nil {
		config.KafkaBrokers = c.KafkaBrokers
	}
	if c.SessionSweepSchedule != nil {
		config.SessionSweepSchedule = *c.SessionSweepSchedule
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
