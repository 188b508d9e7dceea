package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	NotifyChatID    int64  // chat that receives due-record reminders
	SpreadsheetID   string // empty means the store client runs degraded
	CredentialsFile string // path to the Google service-account key; empty means degraded
	Timezone        string // IANA name used for occurrence computation
	LogLevel        string
	Environment     string
	CronSpecScan    string // dispatcher scan interval as a cron spec

	StoreCallTimeout    time.Duration
	StoreMaxRetries     int
	StoreRetryBaseDelay time.Duration
	StoreRetryMaxDelay  time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	chatIDStr := os.Getenv("NOTIFY_CHAT_ID")
	if chatIDStr == "" {
		return nil, fmt.Errorf("NOTIFY_CHAT_ID is not set")
	}
	cfg.NotifyChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_CHAT_ID: %w", err)
	}

	// Both may be empty: the store client then runs in degraded mode instead
	// of failing startup.
	cfg.SpreadsheetID = os.Getenv("SPREADSHEET_ID")
	cfg.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_FILE")

	cfg.Timezone = os.Getenv("TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecScan = os.Getenv("CRON_SPEC_SCAN")
	if cfg.CronSpecScan == "" {
		cfg.CronSpecScan = "0 * * * *" // Default: hourly scan
	}

	cfg.StoreCallTimeout, err = durationEnv("STORE_CALL_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.StoreMaxRetries, err = intEnv("STORE_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	cfg.StoreRetryBaseDelay, err = durationEnv("STORE_RETRY_BASE_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.StoreRetryMaxDelay, err = durationEnv("STORE_RETRY_MAX_DELAY", 8*time.Second)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load already validated the name.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
