package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alert-relay/internal/domain/alert"
)

type logResponse struct {
	ID             int64     `json:"id"`
	WebhookAlertID *int64    `json:"webhook_alert_id,omitempty"`
	PriceAlertID   *int64    `json:"price_alert_id,omitempty"`
	Payload        string    `json:"payload,omitempty"`
	MessageSent    string    `json:"message_sent"`
	Status         string    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Server) handleListLogs(c *gin.Context) {
	kind := c.Query("kind")
	switch kind {
	case "", alert.LogKindWebhook, alert.LogKindPrice:
	default:
		badRequest(c, "kind must be webhook or price")
		return
	}
	status := c.Query("status")
	switch status {
	case "", string(alert.StatusSuccess), string(alert.StatusFailed):
	default:
		badRequest(c, "status must be success or failed")
		return
	}

	limit := parseIntDefault(c.Query("limit"), 50)
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := parseIntDefault(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	logs, total, err := s.deps.Logs.List(c.Request.Context(), alert.LogFilter{
		Kind:   kind,
		Status: alert.LogStatus(status),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		internalError(c, "failed to list logs")
		return
	}

	items := make([]logResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, logResponse{
			ID:             l.ID,
			WebhookAlertID: l.WebhookAlertID,
			PriceAlertID:   l.PriceAlertID,
			Payload:        l.Payload,
			MessageSent:    l.MessageSent,
			Status:         string(l.Status),
			ErrorMessage:   l.ErrorMessage,
			CreatedAt:      l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"total_count": total,
		"limit":       limit,
		"offset":      offset,
		"logs":        items,
	})
}
