// Package notifier provides a lightweight asynchronous delivery pipeline.
//
// Notifications are small, high-signal messages (boost alerts, status posts,
// command replies to the monitored channel). A notification names a target
// chat, the rendered text, and a key describing what it is about.
//
// # Transport
//
// The service delegates delivery to a transport.Adapter implementation (the
// Telegram adapter). Throttling lives here so callers never block on the
// messaging platform's flood limits.
//
// # Delivery policy
//
// Each notification is attempted exactly once. A failed send is logged,
// published on the event bus, and dropped; the polling cadence is the only
// retry mechanism in this bot.
package notifier
