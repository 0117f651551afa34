package config

import (
	"reflect"
	"sort"
	"strings"

	logx "boostbot/pkg/logx"
)

// changeSummary accumulates the section names and log fields of a config
// comparison.
type changeSummary struct {
	sections []string
	attrs    []logx.Field
}

func (c *changeSummary) mark(section string, attrs ...logx.Field) {
	c.sections = append(c.sections, section)
	c.attrs = append(c.attrs, attrs...)
}

func trimmedDiffer(a, b string) bool {
	return strings.TrimSpace(a) != strings.TrimSpace(b)
}

func isSet(s string) bool { return strings.TrimSpace(s) != "" }

// defaultNotifierSection mirrors the runtime defaults applied when the
// notifier section is omitted, so "absent" and "explicit defaults" compare
// equal.
func defaultNotifierSection() *NotifierConfig {
	return &NotifierConfig{Enabled: true, Workers: 2, QueueSize: 256, RatePerSec: 1}
}

// SummarizeConfigChange compares two configs section by section and returns
// the sorted names of the changed sections plus log fields describing the
// new values. Secrets are reported as set/unset booleans, never as values.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	var sum changeSummary

	if trimmedDiffer(oldCfg.Telegram.Token, newCfg.Telegram.Token) ||
		trimmedDiffer(oldCfg.Telegram.ChatID, newCfg.Telegram.ChatID) ||
		trimmedDiffer(oldCfg.Telegram.PollTimeout, newCfg.Telegram.PollTimeout) {
		sum.mark("telegram",
			logx.String("telegram.poll_timeout", strings.TrimSpace(newCfg.Telegram.PollTimeout)),
			logx.Bool("telegram.chat_id_set", isSet(newCfg.Telegram.ChatID)),
			logx.Bool("telegram.token_set", isSet(newCfg.Telegram.Token)))
	}

	oldL, newL := oldCfg.Logging, newCfg.Logging
	if oldL.Level != newL.Level ||
		oldL.Console != newL.Console ||
		oldL.JSON != newL.JSON ||
		oldL.File.Enabled != newL.File.Enabled ||
		trimmedDiffer(oldL.File.Path, newL.File.Path) {
		sum.mark("logging",
			logx.String("logx.level", newL.Level),
			logx.Bool("logx.console", newL.Console),
			logx.Bool("logx.json", newL.JSON),
			logx.Bool("logx.file_enabled", newL.File.Enabled))
	}

	oldM, newM := oldCfg.Monitor, newCfg.Monitor
	if trimmedDiffer(oldM.Interval, newM.Interval) ||
		trimmedDiffer(oldM.RequestTimeout, newM.RequestTimeout) ||
		trimmedDiffer(oldM.FeedURL, newM.FeedURL) ||
		trimmedDiffer(oldM.PairsURL, newM.PairsURL) {
		sum.mark("monitor",
			logx.String("monitor.interval", strings.TrimSpace(newM.Interval)),
			logx.String("monitor.request_timeout", strings.TrimSpace(newM.RequestTimeout)),
			logx.Bool("monitor.feed_url_set", isSet(newM.FeedURL)))
	}

	oldN, newN := oldCfg.Notifier, newCfg.Notifier
	if oldN == nil {
		oldN = defaultNotifierSection()
	}
	if newN == nil {
		newN = defaultNotifierSection()
	}
	if !reflect.DeepEqual(*oldN, *newN) {
		sum.mark("notifier",
			logx.Bool("notifier.enabled", newN.Enabled),
			logx.Int("notifier.workers", newN.Workers),
			logx.Int("notifier.queue_size", newN.QueueSize),
			logx.Int("notifier.rate_per_sec", newN.RatePerSec))
	}

	if oldCfg.Heartbeat.Enabled != newCfg.Heartbeat.Enabled ||
		trimmedDiffer(oldCfg.Heartbeat.Schedule, newCfg.Heartbeat.Schedule) ||
		trimmedDiffer(oldCfg.Heartbeat.Timezone, newCfg.Heartbeat.Timezone) {
		sum.mark("heartbeat",
			logx.Bool("heartbeat.enabled", newCfg.Heartbeat.Enabled),
			logx.String("heartbeat.schedule", strings.TrimSpace(newCfg.Heartbeat.Schedule)))
	}

	// A nil storage section means the audit log is disabled.
	oldDrv, oldBusy, oldPath := storageFacts(oldCfg.Storage)
	newDrv, newBusy, newPath := storageFacts(newCfg.Storage)
	if oldDrv != newDrv || oldBusy != newBusy || oldPath != newPath {
		sum.mark("storage",
			logx.String("storage.driver", newDrv),
			logx.Bool("storage.path_set", newPath),
			logx.String("storage.busy_timeout", newBusy))
	}

	if oldCfg.Pprof.Enabled != newCfg.Pprof.Enabled ||
		trimmedDiffer(oldCfg.Pprof.Addr, newCfg.Pprof.Addr) ||
		isSet(oldCfg.Pprof.Token) != isSet(newCfg.Pprof.Token) {
		sum.mark("pprof",
			logx.Bool("pprof.enabled", newCfg.Pprof.Enabled),
			logx.String("pprof.addr", strings.TrimSpace(newCfg.Pprof.Addr)),
			logx.Bool("pprof.token_set", isSet(newCfg.Pprof.Token)))
	}

	sort.Strings(sum.sections)
	return sum.sections, sum.attrs
}

func storageFacts(s *StorageConfig) (driver, busy string, pathSet bool) {
	if s == nil {
		return "", "", false
	}
	return strings.TrimSpace(s.Driver), strings.TrimSpace(s.BusyTimeout), isSet(s.Path)
}
