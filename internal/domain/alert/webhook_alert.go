package alert

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// DefaultWebhookTemplate is applied when an alert is created without a
// custom message template.
const DefaultWebhookTemplate = "TradingView Alert: {{strategy}} - {{ticker}} - {{close}}"

// WebhookKeyLength is the length of generated webhook keys.
const WebhookKeyLength = 16

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// WebhookAlert maps an opaque inbound key to a message template and a
// Telegram target.
type WebhookAlert struct {
	ID              int64
	Name            string
	WebhookKey      string
	MessageTemplate string
	IsActive        bool
	TargetID        int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks required fields before the alert is persisted.
func (a WebhookAlert) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if a.TargetID == 0 {
		return fmt.Errorf("target_id is required")
	}
	return nil
}

// FallbackMessage is the message used when template rendering fails for a
// given payload. The dispatch must still go out.
func (a WebhookAlert) FallbackMessage(payload string) string {
	return fmt.Sprintf("TradingView Alert (%s): %s", a.Name, payload)
}

// GenerateWebhookKey returns a cryptographically random alphanumeric key.
// Regenerating a key invalidates the previous one immediately.
func GenerateWebhookKey() (string, error) {
	var b strings.Builder
	b.Grow(WebhookKeyLength)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := 0; i < WebhookKeyLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate webhook key: %w", err)
		}
		b.WriteByte(keyAlphabet[n.Int64()])
	}
	return b.String(), nil
}
