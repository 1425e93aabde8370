// Package config reads service configuration from the environment, seeded
// from a local .env file when one exists.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Pricing   PricingConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port     string
	LogLevel string
}

// CatalogConfig selects the catalog backend. PostgreSQL wins over SQLite,
// SQLite over the spreadsheet file.
type CatalogConfig struct {
	Path        string // .xlsx, .xlsm or .csv
	Sheet       string
	SQLitePath  string
	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration
	AutoMigrate bool
}

// PricingConfig overrides the built-in rates. Unset fields keep defaults.
type PricingConfig struct {
	FeeTablesPath      string
	TaxRate            decimal.NullDecimal
	CommissionStandard decimal.NullDecimal
	CommissionPremium  decimal.NullDecimal
	CommissionDefault  decimal.NullDecimal
	ShippingThreshold  decimal.NullDecimal
}

type KafkaConfig struct {
	Brokers     []string
	QuotesTopic string
}

// RateLimitConfig disables limiting when RPS is zero.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

const (
	defaultPort        = "8080"
	defaultLogLevel    = "info"
	defaultCacheTTL    = 30 * time.Second
	defaultQuotesTopic = "listing.quotes"
	defaultBurst       = 5
)

// Load reads the environment after applying .env from the working directory.
// Every malformed value is reported in the returned error.
func Load() (*Config, error) {
	// Best-effort: production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvString("PORT", defaultPort),
			LogLevel: strings.ToLower(getEnvString("LOG_LEVEL", defaultLogLevel)),
		},
		Catalog: CatalogConfig{
			Path:        os.Getenv("CATALOG_PATH"),
			Sheet:       os.Getenv("CATALOG_SHEET"),
			SQLitePath:  os.Getenv("CATALOG_SQLITE_PATH"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			RedisURL:    os.Getenv("REDIS_URL"),
			CacheTTL:    p.duration("CATALOG_CACHE_TTL", defaultCacheTTL),
			AutoMigrate: p.bool("AUTO_MIGRATE", true),
		},
		Pricing: PricingConfig{
			FeeTablesPath:      os.Getenv("FEE_TABLES_PATH"),
			TaxRate:            p.decimal("TAX_RATE"),
			CommissionStandard: p.decimal("COMMISSION_STANDARD"),
			CommissionPremium:  p.decimal("COMMISSION_PREMIUM"),
			CommissionDefault:  p.decimal("COMMISSION_DEFAULT"),
			ShippingThreshold:  p.decimal("SHIPPING_THRESHOLD"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			QuotesTopic: getEnvString("QUOTES_TOPIC", defaultQuotesTopic),
		},
		RateLimit: RateLimitConfig{
			RPS:   p.float("RATE_LIMIT_RPS", 0),
			Burst: p.int("RATE_LIMIT_BURST", defaultBurst),
		},
	}

	switch cfg.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		p.fail("LOG_LEVEL", cfg.Server.LogLevel, errors.New("want debug, info, warn or error"))
	}
	if cfg.RateLimit.RPS < 0 {
		p.fail("RATE_LIMIT_RPS", os.Getenv("RATE_LIMIT_RPS"), errors.New("must not be negative"))
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parser collects conversion errors so all of them surface at once.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("config: %s=%q: %w", key, value, err))
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) decimal(key string) decimal.NullDecimal {
	v := os.Getenv(key)
	if v == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.fail(key, v, err)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
