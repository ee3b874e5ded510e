// Package config loads application configuration from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"news_notifier/internal/model"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	Feeds            []model.Source
	CheckInterval    time.Duration
	BatchSize        int
	MetricsAddr      string
}

// Load reads configuration from environment variables. When CONFIG_FILE is
// set, values missing from the environment are taken from that YAML file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("DATABASE_PATH", "./data/notifier.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CHECK_INTERVAL", "1m")
	v.SetDefault("BATCH_SIZE", 50)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	logLevel := strings.ToLower(v.GetString("LOG_LEVEL"))
	if _, err := ParseLogLevel(logLevel); err != nil {
		return nil, err
	}

	allowedUsers, err := parseUserIDs(v.GetString("ALLOWED_USERS"))
	if err != nil {
		return nil, err
	}

	feeds, err := parseFeeds(v.GetString("FEEDS"))
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(v.GetString("CHECK_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("CHECK_INTERVAL must be positive, got %s", interval)
	}

	batch, err := strconv.Atoi(v.GetString("BATCH_SIZE"))
	if err != nil {
		return nil, fmt.Errorf("invalid BATCH_SIZE: %w", err)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("BATCH_SIZE must be positive, got %d", batch)
	}

	return &Config{
		TelegramBotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		DatabasePath:     v.GetString("DATABASE_PATH"),
		LogLevel:         logLevel,
		AllowedUsers:     allowedUsers,
		Feeds:            feeds,
		CheckInterval:    interval,
		BatchSize:        batch,
		MetricsAddr:      v.GetString("METRICS_ADDR"),
	}, nil
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL %q, use: debug, info, warn, error", s)
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	return len(c.AllowedUsers) == 0 || slices.Contains(c.AllowedUsers, userID)
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		ids = append(ids, uid)
	}
	return ids, nil
}

// parseFeeds reads comma-separated "category=url" pairs. A bare URL yields an
// uncategorized source.
func parseFeeds(raw string) ([]model.Source, error) {
	var sources []model.Source
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		src := model.Source{URL: entry}
		if category, rawURL, ok := strings.Cut(entry, "="); ok && !strings.Contains(category, "://") {
			src = model.Source{Category: strings.TrimSpace(category), URL: strings.TrimSpace(rawURL)}
		}

		u, err := url.Parse(src.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid feed URL %q in FEEDS", src.URL)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
