package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/davex-ai/SwiftBites/internal/pricing"
)

type Config struct {
	HTTPPort         string
	MongoURI         string
	MongoDBName      string
	RedisAddr        string
	RedisPassword    string
	CatalogDBPath    string
	KafkaBrokers     []string
	OrderEventsTopic string
	LogLevel         string
	LogDevelopment   bool
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
	OutboxInterval   time.Duration
	ShippingFee      float64
	TaxRate          float64
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load reads the environment. Malformed numbers and durations are errors
// rather than silent defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDBName:      getEnv("MONGO_DB_NAME", "storefront"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		CatalogDBPath:    getEnv("CATALOG_DB_PATH", "./data/catalog.db"),
		KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.LogDevelopment, err = strconv.ParseBool(getEnv("LOG_DEVELOPMENT", "false")); err != nil {
		return nil, fmt.Errorf("LOG_DEVELOPMENT: %w", err)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}
	if cfg.OutboxInterval, err = time.ParseDuration(getEnv("OUTBOX_POLL_INTERVAL", "1s")); err != nil {
		return nil, fmt.Errorf("OUTBOX_POLL_INTERVAL: %w", err)
	}
	if cfg.ShippingFee, err = parseNonNegative("SHIPPING_FEE", pricing.DefaultShippingFee); err != nil {
		return nil, err
	}
	if cfg.TaxRate, err = parseNonNegative("TAX_RATE", pricing.DefaultTaxRate); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseNonNegative(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: must be a finite number, got %v", key, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %v", key, v)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
