package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alert-relay/internal/domain/alert"
)

type webhookAlertRequest struct {
	Name            string `json:"name"`
	MessageTemplate string `json:"message_template"`
	TargetID        int64  `json:"target_id"`
	IsActive        *bool  `json:"is_active"`
}

type webhookAlertResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	WebhookKey      string    `json:"webhook_key"`
	WebhookPath     string    `json:"webhook_path"`
	MessageTemplate string    `json:"message_template"`
	TargetID        int64     `json:"target_id"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func webhookAlertToResponse(a alert.WebhookAlert) webhookAlertResponse {
	return webhookAlertResponse{
		ID:              a.ID,
		Name:            a.Name,
		WebhookKey:      a.WebhookKey,
		WebhookPath:     "/webhook/" + a.WebhookKey,
		MessageTemplate: a.MessageTemplate,
		TargetID:        a.TargetID,
		IsActive:        a.IsActive,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (s *Server) handleListWebhookAlerts(c *gin.Context) {
	alerts, err := s.deps.WebhookAlerts.List(c.Request.Context())
	if err != nil {
		internalError(c, "failed to list webhook alerts")
		return
	}
	items := make([]webhookAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, webhookAlertToResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alerts": items})
}

func (s *Server) handleCreateWebhookAlert(c *gin.Context) {
	var body webhookAlertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body")
		return
	}
	a := alert.WebhookAlert{
		Name:            body.Name,
		MessageTemplate: body.MessageTemplate,
		TargetID:        body.TargetID,
		IsActive:        true,
	}
	if a.MessageTemplate == "" {
		a.MessageTemplate = alert.DefaultWebhookTemplate
	}
	if body.IsActive != nil {
		a.IsActive = *body.IsActive
	}
	if err := a.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.deps.WebhookAlerts.Create(c.Request.Context(), &a); err != nil {
		internalError(c, "failed to create webhook alert")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "alert": webhookAlertToResponse(a)})
}

func (s *Server) handleGetWebhookAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := s.deps.WebhookAlerts.Get(c.Request.Context(), id)
	if errors.Is(err, alert.ErrNotFound) {
		notFound(c, "webhook alert not found")
		return
	}
	if err != nil {
		internalError(c, "failed to load webhook alert")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alert": webhookAlertToResponse(a)})
}

func (s *Server) handleUpdateWebhookAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body webhookAlertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body")
		return
	}
	a, err := s.deps.WebhookAlerts.Get(c.Request.Context(), id)
	if errors.Is(err, alert.ErrNotFound) {
		notFound(c, "webhook alert not found")
		return
	}
	if err != nil {
		internalError(c, "failed to load webhook alert")
		return
	}

	if body.Name != "" {
		a.Name = body.Name
	}
	if body.MessageTemplate != "" {
		a.MessageTemplate = body.MessageTemplate
	}
	if body.TargetID != 0 {
		a.TargetID = body.TargetID
	}
	if body.IsActive != nil {
		a.IsActive = *body.IsActive
	}
	if err := a.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.deps.WebhookAlerts.Update(c.Request.Context(), &a); err != nil {
		internalError(c, "failed to update webhook alert")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alert": webhookAlertToResponse(a)})
}

func (s *Server) handleDeleteWebhookAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := s.deps.WebhookAlerts.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, alert.ErrNotFound):
		notFound(c, "webhook alert not found")
	default:
		internalError(c, "failed to delete webhook alert")
	}
}

// handleRegenerateWebhookKey rotates the key. The old URL stops working the
// moment this returns.
func (s *Server) handleRegenerateWebhookKey(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	key, err := s.deps.WebhookAlerts.RegenerateKey(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"webhook_key":  key,
			"webhook_path": "/webhook/" + key,
		})
	case errors.Is(err, alert.ErrNotFound):
		notFound(c, "webhook alert not found")
	default:
		internalError(c, "failed to regenerate key")
	}
}
