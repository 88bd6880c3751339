package alert

import "time"

// LogStatus records the delivery outcome of a dispatch.
type LogStatus string

const (
	StatusSuccess LogStatus = "success"
	StatusFailed  LogStatus = "failed"
)

// NotificationLog is one immutable audit row per dispatch attempt. At most
// one of WebhookAlertID / PriceAlertID is set; both may be nil when the
// failure happened before an alert could be resolved.
type NotificationLog struct {
	ID             int64
	WebhookAlertID *int64
	PriceAlertID   *int64
	Payload        string
	MessageSent    string
	Status         LogStatus
	ErrorMessage   string
	CreatedAt      time.Time
}

const (
	LogKindWebhook = "webhook"
	LogKindPrice   = "price"
)

// LogFilter narrows the admin log listing. An empty Kind matches both alert
// kinds.
type LogFilter struct {
	Kind   string
	Status LogStatus
	Limit  int
	Offset int
}
