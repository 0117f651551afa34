package commands

import (
	"time"

	"boostbot/internal/monitor"
	"boostbot/internal/notifier"
	"boostbot/internal/transport"
	logx "boostbot/pkg/logx"
)

// Command is one registered bot command.
type Command struct {
	Name        string // bare command word, e.g. "status"
	Description string // one line for /help and the Telegram menu
	Usage       string
	Timeout     time.Duration // optional override; defaults to defaultCmdTimeout
	Handle      HandlerFunc
}

// Request carries everything a handler needs for one invocation.
type Request struct {
	Update  transport.Update
	Chat    transport.ChatTarget
	Command string
	Args    []string
	ReqID   string

	Adapter  transport.Adapter
	Logger   logx.Logger
	Services *Services
}

// MonitorPort exposes the poll-loop state to handlers.
type MonitorPort interface {
	Status() monitor.Status
}

// NotifierPort exposes delivery-pipeline state to handlers.
type NotifierPort interface {
	Enabled() bool
	QueueDepth() int
	Snapshot() []notifier.HistoryItem
}

// Services is the read-only runtime state handed to every request.
// Fields may be nil in minimal/test setups; handlers must tolerate that.
type Services struct {
	Monitor   MonitorPort
	Notifier  NotifierPort
	StartedAt time.Time
}
