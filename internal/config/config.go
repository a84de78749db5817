package config

import (
	"fmt"
	"os"
	"strconv"

	"FundReview/internal/checklist"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		APIBase  string `yaml:"api_base"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		History    *bool  `yaml:"history"`
	} `yaml:"database"`
	Checklist struct {
		StepPolicy string `yaml:"step_policy"`
		StaleDays  *int   `yaml:"stale_days"`
	} `yaml:"checklist"`
	Schedule struct {
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("STEP_POLICY"); v != "" {
		c.Checklist.StepPolicy = v
	}
	if v := os.Getenv("STALE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Checklist.StaleDays = &n
		}
	}
	if v := os.Getenv("CRON_DIGEST"); v != "" {
		c.Schedule.DigestCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/fund_checklist.db"
	}
	if c.Database.History == nil {
		on := true
		c.Database.History = &on
	}
	if c.Checklist.StepPolicy == "" {
		c.Checklist.StepPolicy = string(checklist.PolicyToggle)
	}
	if c.Checklist.StaleDays == nil {
		days := 7
		c.Checklist.StaleDays = &days
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 8 * * 1-5"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8081"
	}
	if c.Telegram.APIBase == "" {
		c.Telegram.APIBase = "https://api.telegram.org"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Policy returns the configured step policy.
func (c *Config) Policy() (checklist.Policy, error) {
	return checklist.ParsePolicy(c.Checklist.StepPolicy)
}

// HistoryEnabled reports whether fund history is recorded.
func (c *Config) HistoryEnabled() bool {
	return c.Database.History == nil || *c.Database.History
}

// StaleDays is the idle period after which the digest flags a fund.
// Zero turns the flag off.
func (c *Config) StaleDays() int {
	if c.Checklist.StaleDays == nil {
		return 0
	}
	return *c.Checklist.StaleDays
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("checklist.step_policy: %w", err)
	}
	if c.StaleDays() < 0 {
		return fmt.Errorf("checklist.stale_days must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
