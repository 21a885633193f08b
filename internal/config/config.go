package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Telegram update delivery modes.
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// Config keeps runtime settings for the service.
type Config struct {
	Telegram  TelegramConfig `koanf:"telegram"`
	Database  DatabaseConfig `koanf:"database"`
	App       AppConfig      `koanf:"app"`
	HTTP      HTTPConfig     `koanf:"http"`
	Reminders ReminderConfig `koanf:"reminders"`
	OTP       OTPConfig      `koanf:"otp"`
	Schedule  ScheduleConfig `koanf:"schedule"`
	Logging   LoggingConfig  `koanf:"logging"`
}

type TelegramConfig struct {
	Token         string `koanf:"token"`
	APIEndpoint   string `koanf:"api_endpoint"`
	Mode          string `koanf:"mode"`
	WebhookURL    string `koanf:"webhook_url"`
	WebhookSecret string `koanf:"webhook_secret"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type AppConfig struct {
	WebURL   string `koanf:"web_url"`
	Timezone string `koanf:"timezone"`
}

type HTTPConfig struct {
	Addr     string `koanf:"addr"`
	APIToken string `koanf:"api_token"`
}

type ReminderConfig struct {
	Lookahead      time.Duration `koanf:"lookahead"`
	ScanInterval   time.Duration `koanf:"scan_interval"`
	MaxAttempts    int           `koanf:"max_attempts"`
	BackoffBase    time.Duration `koanf:"backoff_base"`
	MaxBackoff     time.Duration `koanf:"max_backoff"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	Concurrency    int           `koanf:"concurrency"`
	SnoozeMinutes  int           `koanf:"snooze_minutes"`
}

type OTPConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// ScheduleConfig holds six-field cron specs (with seconds).
type ScheduleConfig struct {
	Morning string `koanf:"morning"`
	Night   string `koanf:"night"`
	Weekly  string `koanf:"weekly"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"TELEGRAM_BOT_TOKEN":       "telegram.token",
	"TELEGRAM_API_ENDPOINT":    "telegram.api_endpoint",
	"TELEGRAM_MODE":            "telegram.mode",
	"TELEGRAM_WEBHOOK_URL":     "telegram.webhook_url",
	"TELEGRAM_WEBHOOK_SECRET":  "telegram.webhook_secret",
	"DATABASE_URL":             "database.url",
	"WEB_APP_URL":              "app.web_url",
	"APP_TIMEZONE":             "app.timezone",
	"HTTP_ADDR":                "http.addr",
	"API_TOKEN":                "http.api_token",
	"REMINDER_LOOKAHEAD":       "reminders.lookahead",
	"REMINDER_SCAN_INTERVAL":   "reminders.scan_interval",
	"REMINDER_MAX_ATTEMPTS":    "reminders.max_attempts",
	"REMINDER_BACKOFF_BASE":    "reminders.backoff_base",
	"REMINDER_MAX_BACKOFF":     "reminders.max_backoff",
	"REMINDER_REQUEST_TIMEOUT": "reminders.request_timeout",
	"REMINDER_CONCURRENCY":     "reminders.concurrency",
	"REMINDER_SNOOZE_MINUTES":  "reminders.snooze_minutes",
	"OTP_TTL":                  "otp.ttl",
	"SCHEDULE_MORNING":         "schedule.morning",
	"SCHEDULE_NIGHT":           "schedule.night",
	"SCHEDULE_WEEKLY":          "schedule.weekly",
	"LOG_LEVEL":                "logging.level",
	"LOG_FORMAT":               "logging.format",
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. A .env file in the working directory is read first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.App.WebURL = strings.TrimRight(cfg.App.WebURL, "/")

	return &cfg, nil
}

// Validate checks settings needed by every command that talks to Telegram.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	switch c.Telegram.Mode {
	case ModeWebhook, ModePolling:
	default:
		return fmt.Errorf("unknown telegram mode: %s (supported: %s, %s)", c.Telegram.Mode, ModeWebhook, ModePolling)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	r := c.Reminders
	if r.Lookahead <= 0 {
		return fmt.Errorf("reminder lookahead must be positive")
	}
	if r.ScanInterval < time.Second {
		return fmt.Errorf("reminder scan interval must be at least 1s")
	}
	if r.MaxAttempts <= 0 {
		return fmt.Errorf("reminder max attempts must be positive")
	}
	if r.Concurrency <= 0 {
		return fmt.Errorf("reminder concurrency must be positive")
	}
	if r.SnoozeMinutes <= 0 {
		return fmt.Errorf("snooze minutes must be positive")
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("otp ttl must be positive")
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}
