package config

import (
	"os"
	"strconv"
	"time"
)

const envPrefix = "KODBANK_"

// parseEnv overlays KODBANK_* environment variables onto config.
// Malformed numeric, boolean or duration values panic like malformed flags do.
func parseEnv(config *Config) {
	lookup := func(name string) (string, bool) {
		return os.LookupEnv(envPrefix + name)
	}

	if v, ok := lookup("HTTP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := lookup("GRPC_ADDR"); ok {
		config.EndpointAddrGRPC = v
	}
	if v, ok := lookup("DB_DRIVER"); ok {
		config.DatabaseDriver = v
	}
	if v, ok := lookup("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := lookup("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := lookup("SESSION_VALIDITY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.SessionValidityDuration = d
	}
	if v, ok := lookup("DEFAULT_BALANCE"); ok {
		config.DefaultBalance = v
	}
	if v, ok := lookup("BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.BcryptCost = n
	}
	if v, ok := lookup("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.CookieSecure = b
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		config.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("LOG_BACKEND"); ok {
		config.LogBackend = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		config.KafkaBrokers = splitList(v)
	}
	if v, ok := lookup("KAFKA_AUDIT_TOPIC"); ok {
		config.KafkaAuditTopic = v
	}
	if v, ok := lookup("SESSION_SWEEP_SCHEDULE"); ok {
		config.SessionSweepSchedule = v
	}
}
