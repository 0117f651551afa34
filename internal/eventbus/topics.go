package eventbus

// Topics published by the bot. The payload for TopicBoost is
// monitor.BoostEvent; the notifier topics carry notifier.NotificationEvent.
const (
	// TopicBoost fires once per newly detected token boost, after the key
	// is marked seen and before delivery is attempted.
	TopicBoost = "monitor.boost"

	// Notification delivery lifecycle, one event per notification.
	TopicNotifyQueued  = "notifier.queued"
	TopicNotifySent    = "notifier.sent"
	TopicNotifyFailed  = "notifier.failed"
	TopicNotifyDropped = "notifier.dropped"
)
