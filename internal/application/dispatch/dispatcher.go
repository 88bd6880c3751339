package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"alert-relay/internal/domain/alert"
	"alert-relay/internal/infrastructure/metrics"
)

// ConfigResolver resolves an inbound webhook key to its alert and target.
type ConfigResolver interface {
	FindActiveByKey(ctx context.Context, key string) (alert.WebhookConfig, error)
}

// LogWriter records one row per dispatch attempt.
type LogWriter interface {
	Insert(ctx context.Context, l *alert.NotificationLog) error
}

// Gateway delivers a rendered message to a Telegram chat.
type Gateway interface {
	Send(ctx context.Context, botToken, chatID, text string) error
}

// Dispatcher turns an inbound webhook body into a Telegram delivery.
//
// Every resolved dispatch produces exactly one log row, success or failure.
// An unresolved key produces none: probes against guessed keys should not be
// able to fill the log table.
type Dispatcher struct {
	configs ConfigResolver
	logs    LogWriter
	gateway Gateway
}

func NewDispatcher(configs ConfigResolver, logs LogWriter, gateway Gateway) *Dispatcher {
	return &Dispatcher{configs: configs, logs: logs, gateway: gateway}
}

// Dispatch resolves key, renders the alert message from body and sends it.
// The returned message is what was actually delivered (or attempted).
func (d *Dispatcher) Dispatch(ctx context.Context, key string, body []byte) (message string, err error) {
	cfg, err := d.configs.FindActiveByKey(ctx, key)
	if err != nil {
		if errors.Is(err, alert.ErrConfigNotFound) {
			metrics.WebhookDispatches.WithLabelValues("not_found").Inc()
		}
		return "", err
	}

	values, payloadJSON := parsePayload(body)
	logged := false

	// A panic anywhere past resolution must still leave one failed log row.
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"alert_id": cfg.Alert.ID, "panic": r}).
				Error("webhook dispatch panicked")
			err = fmt.Errorf("dispatch panic: %v", r)
			if !logged {
				d.writeLog(ctx, cfg.Alert.ID, payloadJSON, "", alert.StatusFailed, err.Error())
			}
			metrics.WebhookDispatches.WithLabelValues("failed").Inc()
		}
	}()

	if !cfg.Target.IsActive {
		d.writeLog(ctx, cfg.Alert.ID, payloadJSON, "", alert.StatusFailed, alert.ErrTargetInactive.Error())
		logged = true
		metrics.WebhookDispatches.WithLabelValues("failed").Inc()
		return "", alert.ErrTargetInactive
	}

	message = renderMessage(cfg.Alert, values, payloadJSON)

	if err := d.gateway.Send(ctx, cfg.Target.BotToken, cfg.Target.ChatID, message); err != nil {
		d.writeLog(ctx, cfg.Alert.ID, payloadJSON, message, alert.StatusFailed, err.Error())
		logged = true
		metrics.WebhookDispatches.WithLabelValues("failed").Inc()
		metrics.Deliveries.WithLabelValues("webhook", "failed").Inc()
		return message, err
	}

	d.writeLog(ctx, cfg.Alert.ID, payloadJSON, message, alert.StatusSuccess, "")
	logged = true
	metrics.WebhookDispatches.WithLabelValues("success").Inc()
	metrics.Deliveries.WithLabelValues("webhook", "success").Inc()
	log.WithFields(log.Fields{"alert_id": cfg.Alert.ID, "alert": cfg.Alert.Name}).
		Info("webhook alert delivered")
	return message, nil
}

func (d *Dispatcher) writeLog(ctx context.Context, alertID int64, payload, message string, status alert.LogStatus, errMsg string) {
	l := alert.NotificationLog{
		WebhookAlertID: &alertID,
		Payload:        payload,
		MessageSent:    message,
		Status:         status,
		ErrorMessage:   errMsg,
	}
	if err := d.logs.Insert(ctx, &l); err != nil {
		log.WithFields(log.Fields{"alert_id": alertID, "error": err}).
			Error("failed to write notification log")
	}
}

// parsePayload decodes body as a JSON object. Anything else, including plain
// text, is wrapped as {"raw_data": body} so the dispatch still proceeds.
// Numbers keep their original text form.
func parsePayload(body []byte) (map[string]string, string) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil || raw == nil {
		raw = map[string]interface{}{"raw_data": string(body)}
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[k] = stringify(v)
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		normalized = body
	}
	return values, string(normalized)
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// renderMessage substitutes payload values into the alert template. A panic
// during rendering falls back to a generic message that still names the
// alert; the delivery must go out either way.
func renderMessage(a alert.WebhookAlert, values map[string]string, payloadJSON string) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"alert_id": a.ID, "panic": r}).
				Warn("template rendering panicked, using fallback message")
			msg = a.FallbackMessage(payloadJSON)
		}
	}()

	tmpl := a.MessageTemplate
	if tmpl == "" {
		tmpl = alert.DefaultWebhookTemplate
	}
	return alert.Render(tmpl, values)
}
