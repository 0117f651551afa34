package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"boostbot/internal/config"
	"boostbot/internal/dexscreener"
	"boostbot/internal/heartbeat"
	"boostbot/internal/monitor"
	"boostbot/internal/notifier"
	"boostbot/internal/observability/pprof"
	"boostbot/internal/storage"
	"boostbot/internal/transport"
)

// ValidateFile loads a config file, overlays environment secrets, and runs the
// same validation Start uses, without constructing any component. Backs the
// -validate flag.
func ValidateFile(path string) error {
	cfg, err := config.NewConfigManager(path).Load()
	if err != nil {
		return err
	}
	config.ApplyEnvOverrides(cfg)
	return validateConfig(cfg)
}

// validateConfig rejects configs that would fail later in a worse place.
// It is also installed as the hot-reload validator, so a broken edit never
// replaces a working config.
func validateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required (config file or %s)", config.EnvTelegramToken)
	}
	if _, err := parseChatTarget(cfg); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}

	if _, _, err := mapMonitorConfig(cfg, transport.ChatTarget{}); err != nil {
		return err
	}
	for _, u := range []struct{ name, val string }{
		{"monitor.feed_url", cfg.Monitor.FeedURL},
		{"monitor.pairs_url", cfg.Monitor.PairsURL},
	} {
		s := strings.TrimSpace(u.val)
		if s != "" && !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			return fmt.Errorf("%s must be an http(s) URL", u.name)
		}
	}

	if n := cfg.Notifier; n != nil {
		if n.Workers < 0 {
			return fmt.Errorf("notifier.workers must be >= 0")
		}
		if n.QueueSize < 0 {
			return fmt.Errorf("notifier.queue_size must be >= 0")
		}
		if n.RatePerSec < 0 {
			return fmt.Errorf("notifier.rate_per_sec must be >= 0")
		}
	}

	if cfg.Heartbeat.Enabled {
		sched := strings.TrimSpace(cfg.Heartbeat.Schedule)
		if sched == "" {
			return fmt.Errorf("heartbeat.schedule is required when heartbeat.enabled is true")
		}
		if err := heartbeat.ValidateSchedule(sched); err != nil {
			return fmt.Errorf("heartbeat.schedule: invalid %q: %w", sched, err)
		}
		if tz := strings.TrimSpace(cfg.Heartbeat.Timezone); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("heartbeat.timezone: invalid %q: %w", tz, err)
			}
		}
	}

	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}

	if err := mapPprofConfig(cfg).Validate(); err != nil {
		return fmt.Errorf("pprof: %w", err)
	}
	return nil
}

func parseChatTarget(cfg *config.Config) (transport.ChatTarget, error) {
	raw := strings.TrimSpace(cfg.Telegram.ChatID)
	if raw == "" {
		return transport.ChatTarget{}, fmt.Errorf("telegram.chat_id is required (config file or %s)", config.EnvChatID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return transport.ChatTarget{}, fmt.Errorf("telegram.chat_id: not a numeric chat id: %q", raw)
	}
	return transport.ChatTarget{ChatID: id}, nil
}

func mapMonitorConfig(cfg *config.Config, target transport.ChatTarget) (monitor.Config, dexscreener.Config, error) {
	interval, err := config.ParseDurationOrDefault("monitor.interval", cfg.Monitor.Interval, time.Minute)
	if err != nil {
		return monitor.Config{}, dexscreener.Config{}, err
	}
	reqTimeout, err := config.ParseDurationOrDefault("monitor.request_timeout", cfg.Monitor.RequestTimeout, 10*time.Second)
	if err != nil {
		return monitor.Config{}, dexscreener.Config{}, err
	}
	mc := monitor.Config{Interval: interval, Target: target}
	dc := dexscreener.Config{
		FeedURL:  strings.TrimSpace(cfg.Monitor.FeedURL),
		PairsURL: strings.TrimSpace(cfg.Monitor.PairsURL),
		Timeout:  reqTimeout,
	}
	return mc, dc, nil
}

// mapNotifierConfig applies runtime defaults; an omitted section means
// "enabled with defaults".
func mapNotifierConfig(cfg *config.Config) notifier.Config {
	n := notifier.Config{Enabled: true, Workers: 2, QueueSize: 256, RatePerSec: 1}
	if cfg == nil || cfg.Notifier == nil {
		return n
	}
	n.Enabled = cfg.Notifier.Enabled
	if cfg.Notifier.Workers > 0 {
		n.Workers = cfg.Notifier.Workers
	}
	if cfg.Notifier.QueueSize > 0 {
		n.QueueSize = cfg.Notifier.QueueSize
	}
	if cfg.Notifier.RatePerSec > 0 {
		n.RatePerSec = cfg.Notifier.RatePerSec
	}
	return n
}

func mapPprofConfig(cfg *config.Config) pprof.Config {
	return pprof.Config{
		Enabled: cfg.Pprof.Enabled,
		Addr:    strings.TrimSpace(cfg.Pprof.Addr),
		Token:   strings.TrimSpace(cfg.Pprof.Token),
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=file")
		}
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}
