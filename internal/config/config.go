// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/lexitrack/internal/curriculum"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Database
	DBType      string
	DBPath      string
	DatabaseURL string

	// Reference corpus and its ordered level scale
	CorpusPath string
	Levels     curriculum.LevelScale

	DailyNewItems     int
	RecomputeEvery    int
	RecomputeInterval time.Duration
	ReviewQueueLimit  int

	// Reminders are disabled while the token is empty
	TelegramToken         string
	TelegramChatID        int64
	NotificationStartHour int
	NotificationEndHour   int

	LogMode string
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		DBType:                "sqlite",
		DBPath:                "data/lexitrack.db",
		CorpusPath:            "data/corpus.json",
		Levels:                curriculum.DefaultLevels,
		DailyNewItems:         10,
		RecomputeEvery:        10,
		RecomputeInterval:     time.Hour,
		ReviewQueueLimit:      200,
		NotificationStartHour: 4,
		NotificationEndHour:   18,
		LogMode:               "dev",
	}
}

// Load reads envFile if it exists, then the process environment
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv overlays environment variables on DefaultConfig
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	cfg.DBType = stringVar("DB_TYPE", cfg.DBType)
	cfg.DBPath = stringVar("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = stringVar("DATABASE_URL", cfg.DatabaseURL)
	cfg.CorpusPath = stringVar("CORPUS_PATH", cfg.CorpusPath)
	cfg.TelegramToken = stringVar("TELEGRAM_BOT_TOKEN", cfg.TelegramToken)
	cfg.LogMode = stringVar("LOG_MODE", cfg.LogMode)

	if v := os.Getenv("LEVELS"); v != "" {
		levels, err := curriculum.ParseLevelScale(v)
		if err != nil {
			return nil, fmt.Errorf("parse LEVELS: %w", err)
		}
		cfg.Levels = levels
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DAILY_NEW_ITEMS", &cfg.DailyNewItems},
		{"RECOMPUTE_EVERY", &cfg.RecomputeEvery},
		{"REVIEW_QUEUE_LIMIT", &cfg.ReviewQueueLimit},
		{"NOTIFICATION_START_HOUR", &cfg.NotificationStartHour},
		{"NOTIFICATION_END_HOUR", &cfg.NotificationEndHour},
	}
	for _, iv := range ints {
		if err := intVar(iv.key, iv.dst); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if v := os.Getenv("RECOMPUTE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("parse RECOMPUTE_INTERVAL: %w", err)
		}
		cfg.RecomputeInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite", "sqlite3":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}

	if c.DailyNewItems < 0 {
		return fmt.Errorf("DAILY_NEW_ITEMS must not be negative")
	}
	if c.RecomputeEvery <= 0 {
		return fmt.Errorf("RECOMPUTE_EVERY must be positive")
	}
	if c.RecomputeInterval <= 0 {
		return fmt.Errorf("RECOMPUTE_INTERVAL must be positive")
	}
	if c.ReviewQueueLimit <= 0 {
		return fmt.Errorf("REVIEW_QUEUE_LIMIT must be positive")
	}
	if !validHour(c.NotificationStartHour) || !validHour(c.NotificationEndHour) ||
		c.NotificationStartHour > c.NotificationEndHour {
		return fmt.Errorf("invalid notification window %d-%d", c.NotificationStartHour, c.NotificationEndHour)
	}
	return nil
}

// RemindersEnabled reports whether a Telegram notifier can be built
func (c *Config) RemindersEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

func stringVar(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intVar(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}
