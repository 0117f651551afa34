// Package tgui builds escaped Telegram HTML fragments for outgoing
// messages. Everything typed H is safe to concatenate and send with
// ParseMode="HTML".
package tgui
