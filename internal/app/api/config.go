package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port                string
	PostgresDSN         string
	PostgresAutoMigrate bool
	RedisAddr           string
	TaxCategoryCacheTTL time.Duration
	KafkaBrokers        []string
	KafkaTopic          string
	TemporalAddress     string
	TemporalNamespace   string
	TemporalDisabled    bool
	DefaultTaxCategory  string
	DeliveryPricingURL  string
	IdempotencyKeyTTL   time.Duration

	// PostgresMaxOpenConns caps the pool; half of it is kept idle.
	PostgresMaxOpenConns int
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                envDefault("PORT", "8080"),
		PostgresDSN:         strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PostgresAutoMigrate: isTruthy(envDefault("POSTGRES_AUTO_MIGRATE", "true")),
		RedisAddr:           strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          envDefault("KAFKA_TOPIC", "orders.events"),
		TemporalAddress:     envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:   envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:    isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		DefaultTaxCategory:  strings.TrimSpace(os.Getenv("DEFAULT_TAX_CATEGORY")),
		DeliveryPricingURL:  strings.TrimSpace(os.Getenv("DELIVERY_PRICING_URL")),
		IdempotencyKeyTTL:   24 * time.Hour,
	}
	cfg.PostgresMaxOpenConns = 10
	if raw := strings.TrimSpace(os.Getenv("POSTGRES_MAX_OPEN_CONNS")); raw != "" {
		conns, err := strconv.Atoi(raw)
		if err != nil || conns <= 0 {
			return Config{}, fmt.Errorf("POSTGRES_MAX_OPEN_CONNS must be a positive integer")
		}
		cfg.PostgresMaxOpenConns = conns
	}
	if raw := strings.TrimSpace(os.Getenv("TAX_CATEGORY_CACHE_TTL_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("TAX_CATEGORY_CACHE_TTL_SECONDS must be a positive integer")
		}
		cfg.TaxCategoryCacheTTL = time.Duration(seconds) * time.Second
	}
	if raw := strings.TrimSpace(os.Getenv("IDEMPOTENCY_KEY_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("IDEMPOTENCY_KEY_TTL_HOURS must be a positive integer")
		}
		cfg.IdempotencyKeyTTL = time.Duration(hours) * time.Hour
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
