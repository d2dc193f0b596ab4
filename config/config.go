package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"betmate/database"
)

// Config holds all application configuration
type Config struct {
	// HTTP configuration
	HTTPPort    string
	MetricsPort string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Redis configuration
	RedisAddr string

	// Credit economy configuration
	StartingBalance  int64
	DailyRewardBase  int64
	DailyRewardBonus int64 // per consecutive day of the claim streak
	DailyRewardCap   int64 // maximum total daily reward

	// Bet lifecycle configuration
	DeadlineSweepInterval time.Duration // how often the sweeper closes expired bets

	// Presence configuration
	PresenceTTL time.Duration

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.BuildDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// HTTP
		HTTPPort:    getEnvWithDefault("HTTP_PORT", "8080"),
		MetricsPort: getEnvWithDefault("METRICS_PORT", "9090"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Redis
		RedisAddr: getEnvWithDefault("REDIS_ADDR", "localhost:6379"),

		// Credit economy defaults
		StartingBalance:  1000,
		DailyRewardBase:  50,
		DailyRewardBonus: 10,
		DailyRewardCap:   150,

		// Bet lifecycle
		DeadlineSweepInterval: time.Minute,

		// Presence
		PresenceTTL: 60 * time.Second,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if base := os.Getenv("DAILY_REWARD_BASE"); base != "" {
		if parsed, err := strconv.ParseInt(base, 10, 64); err == nil {
			config.DailyRewardBase = parsed
		}
	}
	if bonus := os.Getenv("DAILY_REWARD_BONUS"); bonus != "" {
		if parsed, err := strconv.ParseInt(bonus, 10, 64); err == nil {
			config.DailyRewardBonus = parsed
		}
	}
	if rewardCap := os.Getenv("DAILY_REWARD_CAP"); rewardCap != "" {
		if parsed, err := strconv.ParseInt(rewardCap, 10, 64); err == nil {
			config.DailyRewardCap = parsed
		}
	}
	if interval := os.Getenv("DEADLINE_SWEEP_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil {
			config.DeadlineSweepInterval = parsed
		}
	}
	if ttl := os.Getenv("PRESENCE_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			config.PresenceTTL = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:           "test",
		StartingBalance:       1000,
		DailyRewardBase:       50,
		DailyRewardBonus:      10,
		DailyRewardCap:        150,
		DeadlineSweepInterval: time.Minute,
		PresenceTTL:           60 * time.Second,
	}
}
