package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"telegram": map[string]interface{}{
			"token":          "",
			"api_endpoint":   "",
			"mode":           ModeWebhook,
			"webhook_url":    "",
			"webhook_secret": "",
		},
		"database": map[string]interface{}{
			"url": "life_planner.db",
		},
		"app": map[string]interface{}{
			"web_url":  "http://localhost:3000",
			"timezone": "UTC",
		},
		"http": map[string]interface{}{
			"addr":      ":8080",
			"api_token": "",
		},
		"reminders": map[string]interface{}{
			"lookahead":       "5m",
			"scan_interval":   "60s",
			"max_attempts":    3,
			"backoff_base":    "1s",
			"max_backoff":     "30s",
			"request_timeout": "5s",
			"concurrency":     4,
			"snooze_minutes":  10,
		},
		"otp": map[string]interface{}{
			"ttl": "10m",
		},
		"schedule": map[string]interface{}{
			"morning": "0 0 6 * * *",
			"night":   "0 0 22 * * *",
			"weekly":  "0 0 20 * * 0",
		},
		"logging": map[string]interface{}{
			"level":  "info",
			"format": "text",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
