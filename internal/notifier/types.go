package notifier

import (
	"time"

	"boostbot/internal/transport"
)

// Config controls the async notification pipeline.
// Settings are fixed at process start.
type Config struct {
	Enabled    bool
	Workers    int
	QueueSize  int
	RatePerSec int
}

// Kinds of notifications the bot emits. Used for bus events and the audit log.
const (
	KindBoost    = "boost"
	KindStatus   = "status"
	KindGreeting = "greeting"
)

// Notification is one outbound message.
type Notification struct {
	Target transport.ChatTarget
	Text   string
	// Kind classifies the notification (KindBoost, ...).
	Kind string
	// Key identifies the subject, e.g. a boost identity ("solana_So123...").
	Key    string
	Silent bool
}

// HistoryItem is a compact record of a delivered notification, kept in
// memory for operator visibility (/health).
type HistoryItem struct {
	At   time.Time
	Kind string
	Key  string
}

// NotificationEvent is emitted on the event bus for notifier lifecycle events.
// Keep it small; Data may be logged/serialized by subscribers.
type NotificationEvent struct {
	ChatID   int64     `json:"chat_id"`
	ThreadID int       `json:"thread_id,omitempty"`
	Kind     string    `json:"kind"`
	Key      string    `json:"key"`
	Chars    int       `json:"chars,omitempty"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}
