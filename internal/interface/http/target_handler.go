package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alert-relay/internal/domain/alert"
)

type targetRequest struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	IsActive *bool  `json:"is_active"`
}

type targetResponse struct {
	ID        int64     `json:"id"`
	BotToken  string    `json:"bot_token"`
	ChatID    string    `json:"chat_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func targetToResponse(t alert.TelegramTarget) targetResponse {
	return targetResponse{
		ID:        t.ID,
		BotToken:  t.BotToken,
		ChatID:    t.ChatID,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (s *Server) handleListTargets(c *gin.Context) {
	targets, err := s.deps.Targets.List(c.Request.Context())
	if err != nil {
		internalError(c, "failed to list targets")
		return
	}
	items := make([]targetResponse, 0, len(targets))
	for _, t := range targets {
		items = append(items, targetToResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "targets": items})
}

func (s *Server) handleCreateTarget(c *gin.Context) {
	var body targetRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body")
		return
	}
	target := alert.TelegramTarget{
		BotToken: body.BotToken,
		ChatID:   body.ChatID,
		IsActive: true,
	}
	if body.IsActive != nil {
		target.IsActive = *body.IsActive
	}
	if err := target.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.deps.Targets.Create(c.Request.Context(), &target); err != nil {
		internalError(c, "failed to create target")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "target": targetToResponse(target)})
}

func (s *Server) handleGetTarget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	target, err := s.deps.Targets.Get(c.Request.Context(), id)
	if errors.Is(err, alert.ErrNotFound) {
		notFound(c, "target not found")
		return
	}
	if err != nil {
		internalError(c, "failed to load target")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "target": targetToResponse(target)})
}

func (s *Server) handleUpdateTarget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body targetRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body")
		return
	}
	target, err := s.deps.Targets.Get(c.Request.Context(), id)
	if errors.Is(err, alert.ErrNotFound) {
		notFound(c, "target not found")
		return
	}
	if err != nil {
		internalError(c, "failed to load target")
		return
	}

	if body.BotToken != "" {
		target.BotToken = body.BotToken
	}
	if body.ChatID != "" {
		target.ChatID = body.ChatID
	}
	if body.IsActive != nil {
		target.IsActive = *body.IsActive
	}
	if err := target.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.deps.Targets.Update(c.Request.Context(), &target); err != nil {
		internalError(c, "failed to update target")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "target": targetToResponse(target)})
}

func (s *Server) handleDeleteTarget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := s.deps.Targets.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, alert.ErrTargetInUse):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "target is referenced by existing alerts", "error_code": errCodeTargetInUse})
	case errors.Is(err, alert.ErrNotFound):
		notFound(c, "target not found")
	default:
		internalError(c, "failed to delete target")
	}
}

// handleTestTarget sends a probe message through the target's bot so the
// operator can verify credentials before wiring alerts to it.
func (s *Server) handleTestTarget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	target, err := s.deps.Targets.Get(c.Request.Context(), id)
	if errors.Is(err, alert.ErrNotFound) {
		notFound(c, "target not found")
		return
	}
	if err != nil {
		internalError(c, "failed to load target")
		return
	}
	if err := s.deps.Notifier.TestConnection(c.Request.Context(), target.BotToken, target.ChatID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error(), "error_code": errCodeDelivery})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "test message sent"})
}
