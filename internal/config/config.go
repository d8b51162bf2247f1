// Package config handles application configuration from an optional YAML
// file and environment variables.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "BOOKCLUB_CONFIG"

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	AllowedUsers     []int64
	PresenceChatID   int64
	DatabasePath     string
	LogLevel         string
	ReloadInterval   time.Duration
	Source           SourceConfig
}

// SourceConfig locates the reading list.
type SourceConfig struct {
	Kind    string
	SheetID string
	URL     string
	Path    string
}

// fileConfig mirrors the YAML layout.
type fileConfig struct {
	Telegram struct {
		BotToken       string  `yaml:"botToken"`
		AllowedUsers   []int64 `yaml:"allowedUsers"`
		PresenceChatID int64   `yaml:"presenceChatId"`
	} `yaml:"telegram"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	LogLevel string `yaml:"logLevel"`
	Source   struct {
		Kind           string `yaml:"kind"`
		SheetID        string `yaml:"sheetId"`
		URL            string `yaml:"url"`
		Path           string `yaml:"path"`
		ReloadInterval string `yaml:"reloadInterval"`
	} `yaml:"source"`
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:   "./data/bookclub.db",
		LogLevel:       "info",
		ReloadInterval: 15 * time.Minute,
		Source:         SourceConfig{Kind: "gviz"},
	}
}

// Load reads the YAML file named by BOOKCLUB_CONFIG, if set, and applies
// environment overrides on top.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := cfg.merge(fc); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if cfg.ReloadInterval <= 0 {
		return nil, fmt.Errorf("reload interval must be positive, got %s", cfg.ReloadInterval)
	}
	return cfg, nil
}

func (c *Config) merge(fc fileConfig) error {
	setString(&c.TelegramBotToken, fc.Telegram.BotToken)
	if len(fc.Telegram.AllowedUsers) > 0 {
		c.AllowedUsers = fc.Telegram.AllowedUsers
	}
	if fc.Telegram.PresenceChatID != 0 {
		c.PresenceChatID = fc.Telegram.PresenceChatID
	}
	setString(&c.DatabasePath, fc.Database.Path)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.Source.Kind, fc.Source.Kind)
	setString(&c.Source.SheetID, fc.Source.SheetID)
	setString(&c.Source.URL, fc.Source.URL)
	setString(&c.Source.Path, fc.Source.Path)
	if fc.Source.ReloadInterval != "" {
		d, err := time.ParseDuration(fc.Source.ReloadInterval)
		if err != nil {
			return fmt.Errorf("invalid source.reloadInterval %q: %w", fc.Source.ReloadInterval, err)
		}
		c.ReloadInterval = d
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.TelegramBotToken, os.Getenv("TELEGRAM_BOT_TOKEN"))
	setString(&c.DatabasePath, os.Getenv("DATABASE_PATH"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&c.Source.Kind, os.Getenv("SOURCE_KIND"))
	setString(&c.Source.SheetID, os.Getenv("SHEET_ID"))
	setString(&c.Source.URL, os.Getenv("SOURCE_URL"))
	setString(&c.Source.Path, os.Getenv("SOURCE_PATH"))

	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		var allowedUsers []int64
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
		c.AllowedUsers = allowedUsers
	}

	if raw := os.Getenv("PRESENCE_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PRESENCE_CHAT_ID %q: %w", raw, err)
		}
		c.PresenceChatID = id
	}

	if raw := os.Getenv("RELOAD_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid RELOAD_INTERVAL %q: %w", raw, err)
		}
		c.ReloadInterval = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// ValidateBot checks the settings only the Telegram bot needs.
func (c *Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}
