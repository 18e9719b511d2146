package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string
	MigrateOnStart     bool
	MaxBodyBytes       int64
	EnableHSTS         bool

	CurrencyCode          string
	CatalogCacheTTL       time.Duration
	VerificationCodeTTL   time.Duration
	VerificationRateLimit int
	CartRateLimit         int
	StockLockTTL          time.Duration
	LockRetryBackoff      time.Duration
	LockMaxWait           time.Duration
	IdempotencyTTL        time.Duration
	DiscountPageSize      int

	DiscountCleanupInterval time.Duration
	WorkerConcurrency       int

	Obs ObsConfig
}

// ObsConfig configures logging, metrics and tracing.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsBuckets   string
	TracingExporter  string
	TracingEndpoint  string
	TracingSampling  float64
	SlowQuery        time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "storefront-engine"),
		JWTAudience:        valueOrDefault(k.String("JWT_AUDIENCE"), "storefront-seller"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START")),
		MaxBodyBytes:       int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),
		EnableHSTS:         parseBool(k.String("ENABLE_HSTS")),

		CurrencyCode:          strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "PHP")),
		CatalogCacheTTL:       parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),
		VerificationCodeTTL:   parseDuration(k.String("VERIFICATION_CODE_TTL"), "5m"),
		VerificationRateLimit: parseInt(k.String("VERIFICATION_RATE_LIMIT"), 5),
		CartRateLimit:         parseInt(k.String("CART_RATE_LIMIT"), 120),
		StockLockTTL:          parseDuration(k.String("STOCK_LOCK_TTL"), "5s"),
		LockRetryBackoff:      parseDuration(k.String("LOCK_RETRY_BACKOFF"), "25ms"),
		LockMaxWait:           parseDuration(k.String("LOCK_MAX_WAIT"), "2s"),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		DiscountPageSize:      parseInt(k.String("DISCOUNT_PAGE_SIZE"), 20),

		DiscountCleanupInterval: parseDuration(k.String("DISCOUNT_CLEANUP_INTERVAL"), "30s"),
		WorkerConcurrency:       parseInt(k.String("WORKER_CONCURRENCY"), 5),

		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "storefront"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS"),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "none"),
			TracingEndpoint:  k.String("OBS_TRACING_ENDPOINT"),
			TracingSampling:  parseFloat(k.String("OBS_TRACING_SAMPLING"), 1),
			SlowQuery:        parseDuration(k.String("OBS_SLOW_QUERY"), "200ms"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.CurrencyCode != "PHP" {
		return nil, fmt.Errorf("CURRENCY_CODE %q is not supported", cfg.CurrencyCode)
	}
	if cfg.DiscountCleanupInterval < time.Second {
		return nil, errors.New("DISCOUNT_CLEANUP_INTERVAL must be at least 1s")
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
