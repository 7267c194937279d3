package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultProofMaxBytes is the payment slip size ceiling (5 MiB)
const DefaultProofMaxBytes = 5 << 20

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	OrderAPI OrderAPIConfig
	Checkout CheckoutConfig
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

type AuthConfig struct {
	APIKeys []string // Valid API keys for the back-office order routes
}

// RedisConfig selects the Redis cart repository when Addr is set
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	CartTTLMin int
}

// MongoConfig selects the MongoDB order repository when URI is set
type MongoConfig struct {
	URI      string
	Database string
}

// OrderAPIConfig points order creation at a remote order API.
// Empty BaseURL means orders are created in-process.
type OrderAPIConfig struct {
	BaseURL string
	Timeout int
	APIKey  string
}

type CheckoutConfig struct {
	TestModeEnabled     bool
	ProofMaxBytes       int64
	ProofPlaceholderURL string
	DemoUserID          string
	IdempotencyCapacity int
	SessionTTLMin       int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Auth: AuthConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{"apitest"}),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			CartTTLMin: getEnvAsInt("CART_TTL_MINUTES", 7*24*60),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "lexacademy"),
		},
		OrderAPI: OrderAPIConfig{
			BaseURL: getEnv("ORDER_API_URL", ""),
			Timeout: getEnvAsInt("ORDER_API_TIMEOUT", 10),
			APIKey:  getEnv("ORDER_API_KEY", "apitest"),
		},
		Checkout: CheckoutConfig{
			TestModeEnabled:     getEnvAsBool("CHECKOUT_TEST_MODE", false),
			ProofMaxBytes:       int64(getEnvAsInt("PROOF_MAX_BYTES", DefaultProofMaxBytes)),
			ProofPlaceholderURL: getEnv("PROOF_PLACEHOLDER_URL", "https://placehold.co/600x800?text=Payment+Slip"),
			DemoUserID:          getEnv("DEMO_USER_ID", "guest-demo-user"),
			IdempotencyCapacity: getEnvAsInt("IDEMPOTENCY_FILTER_SIZE", 100000),
			SessionTTLMin:       getEnvAsInt("CHECKOUT_SESSION_TTL_MINUTES", 60),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Checkout.ProofMaxBytes <= 0 || c.Checkout.ProofMaxBytes > DefaultProofMaxBytes {
		return fmt.Errorf("PROOF_MAX_BYTES must be between 1 and %d", DefaultProofMaxBytes)
	}

	if c.Checkout.DemoUserID == "" {
		return fmt.Errorf("DEMO_USER_ID must not be empty")
	}

	if c.Mongo.URI != "" && c.Mongo.Database == "" {
		return fmt.Errorf("MONGO_DATABASE is required when MONGO_URI is set")
	}

	if c.Checkout.SessionTTLMin <= 0 {
		return fmt.Errorf("CHECKOUT_SESSION_TTL_MINUTES must be positive")
	}

	if c.Checkout.IdempotencyCapacity <= 0 {
		return fmt.Errorf("IDEMPOTENCY_FILTER_SIZE must be positive")
	}

	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
