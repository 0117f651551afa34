// Package transport defines the messaging abstraction the bot core talks to.
// The concrete Telegram implementation lives in transport/telegram.
package transport

import (
	"context"
	"time"
)

// Adapter is the platform edge. The core hands it a channel for inbound
// updates and calls SendText for everything outbound; it never imports a
// platform SDK directly.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// Update is an inbound text message (commands included).
type Update struct {
	ID       int
	ChatID   int64
	ThreadID int // telegram forum topic thread id (0 if none)
	UserID   int64
	Username string
	Text     string
	At       time.Time
	IsGroup  bool
}

// ChatTarget names where a message goes: a chat, optionally narrowed to a
// forum topic thread.
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

// MessageRef identifies a message the adapter already delivered.
type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

// SendOptions tunes a single send. Silent suppresses the client-side
// notification sound; routine messages such as heartbeats set it.
type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	Silent         bool
}

// BotCommand is one entry in the platform's command menu.
type BotCommand struct {
	Command     string
	Description string
}

// CommandMenuUpdater is implemented by adapters that can publish the
// command list to the platform (Telegram's setMyCommands). The command
// registry probes for it with a type assertion.
type CommandMenuUpdater interface {
	UpdateMenuCommands(ctx context.Context, cmds []BotCommand) error
}
