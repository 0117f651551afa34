// Package commands routes inbound Telegram messages to bot commands.
//
// The registry is flat: every command is a single /word. Handlers run on a
// small worker pool behind a bounded job queue so a slow Telegram call can
// never stall the update stream.
package commands
