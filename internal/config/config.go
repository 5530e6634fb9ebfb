package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend constants
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Email send strategy constants
const (
	EmailStrategySequential = "sequential"
	EmailStrategyParallel   = "parallel"
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Marketplace OAuth settings (token endpoint for refresh + code exchange)
	OAuthClientID     string
	OAuthClientSecret string
	OAuthTokenURL     string
	OAuthTimeout      time.Duration

	// Inventory API settings
	InventoryAPIURL  string
	InventoryTimeout time.Duration

	// Email transport settings
	EmailAPIURL   string
	EmailAPIKey   string
	SenderEmail   string
	EmailStrategy string // "sequential" or "parallel"
	EmailTimeout  time.Duration
	EmailSubject  string

	// Report cache
	CacheType     string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ReportTTL     time.Duration

	// Admin API
	AdminAPIKey string

	// Metrics
	MetricsEnabled bool

	// Runtime
	IsProduction bool
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "stockmonitor.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:     getEnv("SERVER_ADDR", ":8080"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		// Marketplace OAuth
		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthTokenURL:     getEnv("OAUTH_TOKEN_URL", ""),
		OAuthTimeout:      getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),

		// Inventory API
		InventoryAPIURL:  getEnv("INVENTORY_API_URL", ""),
		InventoryTimeout: getEnvDuration("INVENTORY_TIMEOUT", 30*time.Second),

		// Email transport
		EmailAPIURL:   getEnv("EMAIL_API_URL", ""),
		EmailAPIKey:   getEnv("EMAIL_API_KEY", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", ""),
		EmailStrategy: getEnv("EMAIL_STRATEGY", EmailStrategySequential),
		EmailTimeout:  getEnvDuration("EMAIL_TIMEOUT", 30*time.Second),
		EmailSubject:  getEnv("EMAIL_SUBJECT", "Out of Stock Alert"),

		// Report cache
		CacheType:     getEnv("CACHE_TYPE", CacheTypeMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		ReportTTL:     getEnvDuration("REPORT_TTL", 72*time.Hour),

		// Admin API
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		// Metrics
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		// Runtime
		IsProduction: getEnvBool("IS_PRODUCTION", false),
	}
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.OAuthTokenURL == "" {
		return errors.New("OAUTH_TOKEN_URL is required")
	}
	if c.OAuthClientID == "" || c.OAuthClientSecret == "" {
		return errors.New("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required")
	}
	if c.InventoryAPIURL == "" {
		return errors.New("INVENTORY_API_URL is required")
	}
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be: sqlite, postgres)", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
	}
	switch c.EmailStrategy {
	case EmailStrategySequential, EmailStrategyParallel:
	default:
		return fmt.Errorf(
			"invalid EMAIL_STRATEGY: %s (must be: sequential, parallel)",
			c.EmailStrategy,
		)
	}
	switch c.CacheType {
	case CacheTypeMemory, CacheTypeRedis:
	default:
		return fmt.Errorf("invalid CACHE_TYPE: %s (must be: memory, redis)", c.CacheType)
	}
	return nil
}

// ValidateEmailConfig checks that email transport settings are complete.
// Separate from Validate so token and inventory paths can run without a
// configured mailer (e.g. the token status endpoint).
func (c *Config) ValidateEmailConfig() error {
	if c.EmailAPIURL == "" {
		return errors.New("EMAIL_API_URL is required for notifications")
	}
	if c.EmailAPIKey == "" {
		return errors.New("EMAIL_API_KEY is required for notifications")
	}
	if c.SenderEmail == "" {
		return errors.New("SENDER_EMAIL is required for notifications")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
