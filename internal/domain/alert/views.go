package alert

// WebhookConfig is a webhook alert resolved together with its delivery
// target. The target is returned even when inactive so the caller can log
// the failed delivery against the alert.
type WebhookConfig struct {
	Alert  WebhookAlert
	Target TelegramTarget
}

// PriceAlertWithTarget pairs an active price alert with its delivery target
// for a poll cycle.
type PriceAlertWithTarget struct {
	Alert  PriceAlert
	Target TelegramTarget
}
