package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"alert-relay/internal/domain/alert"
)

const testMessage = "This is a test message from your trading alert relay."

// TelegramGateway wraps the Bot API sendMessage call. Credentials are passed
// per send because every alert carries its own target; the gateway itself is
// stateless.
type TelegramGateway struct {
	baseURL    string
	httpClient *http.Client
}

func NewTelegramGateway(baseURL string, timeout time.Duration) *TelegramGateway {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &TelegramGateway{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send pushes one text message to the chat. Any transport failure or non-2xx
// response is normalized to *alert.DeliveryError; nothing escapes this
// boundary. One attempt per call, no retries.
func (g *TelegramGateway) Send(ctx context.Context, botToken, chatID, text string) error {
	if botToken == "" || chatID == "" {
		return &alert.DeliveryError{Detail: "telegram token or chat_id missing"}
	}

	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/bot%s/sendMessage", g.baseURL, botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &alert.DeliveryError{Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &alert.DeliveryError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &alert.DeliveryError{
			Detail: fmt.Sprintf("telegram send failed status=%d body=%s", resp.StatusCode, string(raw)),
		}
	}
	return nil
}

// TestConnection sends a fixed probe message, used by the admin target-test
// action before a target is trusted.
func (g *TelegramGateway) TestConnection(ctx context.Context, botToken, chatID string) error {
	return g.Send(ctx, botToken, chatID, testMessage)
}
