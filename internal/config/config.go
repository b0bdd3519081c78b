package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Config struct {
	ListenAddr string

	// PricingURL is the billing backend's price-list endpoint. Empty
	// means the built-in demo table is used.
	PricingURL   string
	PricingToken string

	// Transport selects the media backend: "native" or "sim".
	Transport string

	// SignalBaseURL prefixes provisioned room identifiers so the native
	// transport can dial them.
	SignalBaseURL string

	ConnectTimeout time.Duration
	EndingTimeout  time.Duration

	// DefaultBalance seeds the in-process balance source for users the
	// account service has never told us about.
	DefaultBalance decimal.Decimal
}

func Load() Config {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	return Config{
		ListenAddr:     envOr("CALLENGINE_LISTEN_ADDR", ":8080"),
		PricingURL:     os.Getenv("CALLENGINE_PRICING_URL"),
		PricingToken:   os.Getenv("CALLENGINE_PRICING_TOKEN"),
		Transport:      envOr("CALLENGINE_TRANSPORT", "sim"),
		SignalBaseURL:  os.Getenv("CALLENGINE_SIGNAL_BASE_URL"),
		ConnectTimeout: envDuration("CALLENGINE_CONNECT_TIMEOUT", 30*time.Second),
		EndingTimeout:  envDuration("CALLENGINE_ENDING_TIMEOUT", 5*time.Second),
		DefaultBalance: envDecimal("CALLENGINE_DEFAULT_BALANCE", decimal.Zero),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid decimal, using default")
		return fallback
	}
	return d
}
