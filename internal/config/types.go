package config

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Monitor   MonitorConfig   `json:"monitor"`
	Notifier  *NotifierConfig `json:"notifier,omitempty"`
	Heartbeat HeartbeatConfig `json:"heartbeat,omitempty"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	Pprof     PprofConfig     `json:"pprof,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is the recipient channel/group/user for boost notifications.
	// Kept as a string in the file; parsed to int64 at startup.
	ChatID string `json:"chat_id"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	JSON    bool        `json:"json,omitempty"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MonitorConfig controls the boost polling loop.
//
// All durations are Go duration strings (e.g. "30s", "2m").
// Endpoint overrides exist for tests and self-hosted mirrors; leave them
// empty to use the public DexScreener API.
type MonitorConfig struct {
	Interval       string `json:"interval"`
	RequestTimeout string `json:"request_timeout"`
	FeedURL        string `json:"feed_url,omitempty"`
	PairsURL       string `json:"pairs_url,omitempty"`
}

// NotifierConfig controls the async notification pipeline.
// If the whole section is omitted, the notifier defaults to enabled=true.
type NotifierConfig struct {
	Enabled    bool `json:"enabled"`
	Workers    int  `json:"workers"`
	QueueSize  int  `json:"queue_size"`
	RatePerSec int  `json:"rate_per_sec"`
}

// HeartbeatConfig controls optional scheduled status posts to the
// notification channel. Schedule accepts cron expressions (5 or 6 fields)
// and descriptors like "@hourly" or "@every 6h".
type HeartbeatConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// StorageConfig controls the optional delivery audit log.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./boostbot-audit" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PprofConfig controls the optional pprof debug listener.
//
// Bind to loopback (the default); a non-loopback addr requires a token.
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`  // default: "127.0.0.1:6060"
	Token   string `json:"token,omitempty"` // bearer token or ?token= (never logged)
}
