package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	NATS          NATSConfig
	Storage       StorageConfig
	GiftCards     GiftCardConfig
	Scheduler     SchedulerConfig
	Notifications NotificationConfig
	Breaker       BreakerConfig
	Sentry        SentryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	CORSOrigins    string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConns      int
	MinConns      int
	MigrateOnBoot bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// IdempotencyTTL bounds how long a consumed event id is remembered
	IdempotencyTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string
	AdminRole string
}

// NATSConfig holds event bus configuration
type NATSConfig struct {
	URL        string
	StreamName string
	Enabled    bool
}

// StorageConfig holds object storage settings for proof images
type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BaseURL         string
	UploadURLExpiry time.Duration
	AllowedTypes    []string
}

// GiftCardConfig holds gift card ledger policy
type GiftCardConfig struct {
	DefaultCurrency   string
	ValidityYears     int
	AbandonedAfterYrs int
	CodeAttempts      int
}

// SchedulerConfig holds sweep settings
type SchedulerConfig struct {
	Interval       time.Duration
	ReservationTTL time.Duration
}

// NotificationConfig holds outgoing email settings
type NotificationConfig struct {
	FromAddress string
	StoreName   string
	StoreURL    string
}

// BreakerConfig holds circuit breaker tuning for outbound calls
type BreakerConfig struct {
	IntervalSeconds  int
	TimeoutSeconds   int
	FailureThreshold int
	SuccessThreshold int
}

// SentryConfig holds error reporting settings
type SentryConfig struct {
	DSN     string
	Enabled bool
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 15),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:8000"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "commerce"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:      getEnvAsInt("DB_MIN_CONNS", 5),
			MigrateOnBoot: getEnvAsBool("DB_MIGRATE_ON_BOOT", false),
		},
		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			IdempotencyTTL: getEnvAsDuration("REDIS_IDEMPOTENCY_TTL", 7*24*time.Hour),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AdminRole: getEnv("JWT_ADMIN_ROLE", "admin"),
		},
		NATS: NATSConfig{
			URL:        getEnv("NATS_URL", "nats://localhost:4222"),
			StreamName: getEnv("NATS_STREAM", "COMMERCE"),
			Enabled:    getEnvAsBool("NATS_ENABLED", true),
		},
		Storage: StorageConfig{
			Bucket:          getEnv("STORAGE_BUCKET", "order-proofs"),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			AccessKey:       getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:       getEnv("STORAGE_SECRET_KEY", ""),
			BaseURL:         getEnv("STORAGE_BASE_URL", ""),
			UploadURLExpiry: getEnvAsDuration("STORAGE_UPLOAD_URL_EXPIRY", 15*time.Minute),
			AllowedTypes:    getEnvAsList("STORAGE_ALLOWED_TYPES", []string{"image/*", "application/pdf"}),
		},
		GiftCards: GiftCardConfig{
			DefaultCurrency:   strings.ToLower(getEnv("GIFT_CARD_DEFAULT_CURRENCY", "usd")),
			ValidityYears:     getEnvAsInt("GIFT_CARD_VALIDITY_YEARS", 5),
			AbandonedAfterYrs: getEnvAsInt("GIFT_CARD_ABANDONED_AFTER_YEARS", 3),
			CodeAttempts:      getEnvAsInt("GIFT_CARD_CODE_ATTEMPTS", 10),
		},
		Scheduler: SchedulerConfig{
			Interval:       getEnvAsDuration("SCHEDULER_INTERVAL", 24*time.Hour),
			ReservationTTL: getEnvAsDuration("STORE_CREDIT_RESERVATION_TTL", 72*time.Hour),
		},
		Notifications: NotificationConfig{
			FromAddress: getEnv("EMAIL_FROM", "orders@groganengrave.com"),
			StoreName:   getEnv("STORE_NAME", "Grogan Engrave"),
			StoreURL:    getEnv("STORE_URL", "https://groganengrave.com"),
		},
		Breaker: BreakerConfig{
			IntervalSeconds:  getEnvAsInt("BREAKER_INTERVAL_SECONDS", 60),
			TimeoutSeconds:   getEnvAsInt("BREAKER_TIMEOUT_SECONDS", 30),
			FailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
			SuccessThreshold: getEnvAsInt("BREAKER_SUCCESS_THRESHOLD", 1),
		},
		Sentry: SentryConfig{
			DSN:     getEnv("SENTRY_DSN", ""),
			Enabled: getEnvAsBool("SENTRY_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the services cannot run with
func (c *Config) Validate() error {
	if c.Server.Environment == "production" && c.JWT.Secret == "your-secret-key-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.GiftCards.ValidityYears <= 0 {
		return fmt.Errorf("GIFT_CARD_VALIDITY_YEARS must be positive")
	}
	if c.GiftCards.AbandonedAfterYrs <= 0 {
		return fmt.Errorf("GIFT_CARD_ABANDONED_AFTER_YEARS must be positive")
	}
	if c.GiftCards.CodeAttempts <= 0 {
		return fmt.Errorf("GIFT_CARD_CODE_ATTEMPTS must be positive")
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form for the migrator
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
