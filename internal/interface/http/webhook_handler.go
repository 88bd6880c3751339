package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"alert-relay/internal/domain/alert"
)

// handleWebhook accepts a TradingView-style alert body and relays it. The
// response mirrors the dispatch outcome: unknown keys stay indistinguishable
// from never-configured ones.
func (s *Server) handleWebhook(c *gin.Context) {
	key := c.Param("key")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}

	message, err := s.deps.Dispatcher.Dispatch(c.Request.Context(), key, body)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
	case errors.Is(err, alert.ErrConfigNotFound):
		notFound(c, "webhook not found")
	case errors.Is(err, alert.ErrTargetInactive):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "telegram target is not active", "error_code": errCodeTargetInactive})
	case alert.IsDelivery(err):
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to send notification", "error_code": errCodeDelivery})
	default:
		log.WithFields(log.Fields{"key_len": len(key), "error": err}).Error("webhook dispatch failed")
		internalError(c, "internal error")
	}
}
