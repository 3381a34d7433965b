package config

import (
	"time"

	"os"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

type Config struct {
	PostgresDSN  string
	MongoURI     string
	RedisAddr    string
	RabbitURL    string
	JWTSecret    string
	HoldTTL      time.Duration
	HTTPAddr     string
	OTLPEndpoint string
}

// Load reads configuration from the environment. HOLD_TTL is the single knob
// controlling how long a seat hold stays valid; it defaults to 5 minutes and
// accepts any Go duration string ("10s" gives flash-sale style checkout).
// An unparseable value is an error, not a silent fall back to the default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	holdTTL := 5 * time.Minute
	if raw := os.Getenv("HOLD_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid HOLD_TTL %q", raw)
		}
		holdTTL = parsed
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	return &Config{
		PostgresDSN:  os.Getenv("PG_DSN"),
		MongoURI:     os.Getenv("MONGO_URI"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		HoldTTL:      holdTTL,
		HTTPAddr:     httpAddr,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
