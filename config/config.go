package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"sessionbot/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Telegram configuration
	TelegramToken string
	AdminIDs      []int64 // Users with admin rights regardless of the admins table
	LogChannelID  int64   // Chat receiving purchase notifications, 0 disables them
	SupportURL    string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS configuration, empty disables event forwarding
	NATSServers string

	// Razorpay configuration
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayCallbackURL   string

	// Wallet settings
	MinRecharge   int64 // Whole rupees
	ReferralBonus int64 // Paise credited to the referrer

	// HTTP server for webhooks and health checks
	HTTPAddr string

	// How long a pending conversation step is remembered
	ConversationTTL time.Duration

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	LogLevel string

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

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the bot runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from the environment, reading .env first when present
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}

	return fromEnv()
}

func fromEnv() (*Config, error) {
	config := &Config{
		// Telegram
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		SupportURL:    os.Getenv("SUPPORT_URL"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Redis
		RedisAddr:     getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Razorpay
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		RazorpayCallbackURL:   os.Getenv("RAZORPAY_CALLBACK_URL"),

		// Wallet settings with defaults
		MinRecharge:   20,
		ReferralBonus: 50,

		HTTPAddr:        getEnvWithDefault("HTTP_ADDR", ":8080"),
		ConversationTTL: 10 * time.Minute,

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "sessionbot"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: 60000,

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	var err error
	if config.AdminIDs, err = parseIDs(os.Getenv("ADMIN_IDS")); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}
	if config.LogChannelID, err = getInt64("LOG_CHANNEL_ID", 0); err != nil {
		return nil, err
	}
	if config.MinRecharge, err = getInt64("MIN_RECHARGE", config.MinRecharge); err != nil {
		return nil, err
	}
	if config.ReferralBonus, err = getInt64("REFERRAL_BONUS", config.ReferralBonus); err != nil {
		return nil, err
	}
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if config.RedisDB, err = strconv.Atoi(redisDB); err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); interval != "" {
		if config.OTelExportIntervalMillis, err = strconv.Atoi(interval); err != nil {
			return nil, fmt.Errorf("invalid OTEL_EXPORT_INTERVAL_MILLIS: %w", err)
		}
	}
	if ttl := os.Getenv("CONVERSATION_TTL"); ttl != "" {
		if config.ConversationTTL, err = time.ParseDuration(ttl); err != nil {
			return nil, fmt.Errorf("invalid CONVERSATION_TTL: %w", err)
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}
	if config.MinRecharge <= 0 {
		return nil, fmt.Errorf("MIN_RECHARGE must be positive")
	}
	if config.ReferralBonus < 0 {
		return nil, fmt.Errorf("REFERRAL_BONUS cannot be negative")
	}

	return config, nil
}

// parseIDs parses a comma separated list of Telegram IDs
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, idStr := range strings.Split(raw, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
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
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		AdminIDs:         []int64{999999},
		MinRecharge:      20,
		ReferralBonus:    50,
		HTTPAddr:         ":0",
		ConversationTTL:  10 * time.Minute,
		OTelServiceName:  "sessionbot-test",
		OTelExporterType: "none",
		LogLevel:         "debug",
	}
}
