// Package config provides configuration management for solana-scout.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultRPCEndpoint is the public mainnet-beta endpoint
const DefaultRPCEndpoint = "https://api.mainnet-beta.solana.com"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	RPC       RPCConfig
	Redis     RedisConfig
	Budget    BudgetConfig
	Breaker   BreakerConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// RPCConfig holds Solana RPC configuration
type RPCConfig struct {
	Endpoint   string
	Commitment string
	Timeout    time.Duration // deadline for one report or comparison
}

// RedisConfig holds Redis configuration. An empty Addr disables the shared RPC budget.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// BudgetConfig holds the shared RPC request budget
type BudgetConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

// MinHalfOpenCalls is the number of concurrent RPC calls one report issues.
// A smaller half-open quota would refuse part of the first report after recovery.
const MinHalfOpenCalls = 3

// BreakerConfig holds circuit breaker settings for the RPC endpoint
type BreakerConfig struct {
	Enabled          bool
	MaxFailures      int
	FailureThreshold float64
	Timeout          time.Duration
	HalfOpenCalls    int // probe calls allowed at once while half-open
}

// RateLimitConfig holds per-client API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		RPC: RPCConfig{
			Endpoint:   getEnv("SOLANA_RPC_URL", DefaultRPCEndpoint),
			Commitment: getEnv("SOLANA_COMMITMENT", "confirmed"),
			Timeout:    getEnvAsDuration("SOLANA_RPC_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Budget: BudgetConfig{
			RequestsPerWindow: getEnvAsInt("RPC_BUDGET_REQUESTS", 600),
			Window:            getEnvAsDuration("RPC_BUDGET_WINDOW", time.Minute),
		},
		Breaker: BreakerConfig{
			Enabled:          getEnvAsBool("RPC_BREAKER_ENABLED", true),
			MaxFailures:      getEnvAsInt("RPC_BREAKER_MAX_FAILURES", 5),
			FailureThreshold: getEnvAsFloat("RPC_BREAKER_FAILURE_THRESHOLD", 0.5),
			Timeout:          getEnvAsDuration("RPC_BREAKER_TIMEOUT", 30*time.Second),
			HalfOpenCalls:    getEnvAsInt("RPC_BREAKER_HALF_OPEN_CALLS", 2*MinHalfOpenCalls),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail late at request time
func (c *Config) Validate() error {
	if err := ValidateEndpoint(c.RPC.Endpoint); err != nil {
		return err
	}

	switch strings.ToLower(c.RPC.Commitment) {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid SOLANA_COMMITMENT %q", c.RPC.Commitment)
	}

	if c.Budget.RequestsPerWindow <= 0 {
		return fmt.Errorf("RPC_BUDGET_REQUESTS must be positive, got %d", c.Budget.RequestsPerWindow)
	}

	if c.Breaker.Enabled && c.Breaker.HalfOpenCalls < MinHalfOpenCalls {
		return fmt.Errorf("RPC_BREAKER_HALF_OPEN_CALLS must be at least %d, got %d", MinHalfOpenCalls, c.Breaker.HalfOpenCalls)
	}

	return nil
}

// ValidateEndpoint checks that an RPC endpoint is an absolute http(s) URL
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid rpc endpoint %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid rpc endpoint %q: expected http(s) URL", endpoint)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a bool with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
