package config

import (
	"os"
	"strings"
)

// Environment overrides for secrets, so credentials can stay out of the
// config file. Values in the environment take precedence.
const (
	EnvTelegramToken = "BOOSTBOT_TELEGRAM_TOKEN"
	EnvChatID        = "BOOSTBOT_CHAT_ID"
)

// ApplyEnvOverrides overlays secret values from the environment onto cfg.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelegramToken)); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvChatID)); v != "" {
		cfg.Telegram.ChatID = v
	}
}
