package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"alert-relay/internal/domain/alert"
)

type priceAlertRequest struct {
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	Condition       string   `json:"condition"`
	TargetPrice     *float64 `json:"target_price"`
	MessageTemplate string   `json:"message_template"`
	TargetID        int64    `json:"target_id"`
	IsActive        *bool    `json:"is_active"`
	IsOneTime       *bool    `json:"is_one_time"`
}

type priceAlertResponse struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Symbol          string     `json:"symbol"`
	Condition       string     `json:"condition"`
	TargetPrice     float64    `json:"target_price"`
	MessageTemplate string     `json:"message_template"`
	TargetID        int64      `json:"target_id"`
	IsActive        bool       `json:"is_active"`
	IsOneTime       bool       `json:"is_one_time"`
	IsTriggered     bool       `json:"is_triggered"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func priceAlertToResponse(a alert.PriceAlert) priceAlertResponse {
	return priceAlertResponse{
		ID:              a.ID,
		Name:            a.Name,
		Symbol:          a.Symbol,
		Condition:       string(a.Condition),
		TargetPrice:     a.TargetPrice,
		MessageTemplate: a.MessageTemplate,
		TargetID:        a.TargetID,
		IsActive:        a.IsActive,
		IsOneTime:       a.IsOneTime,
		IsTriggered:     a.IsTriggered,
		LastTriggeredAt: a.LastTriggeredAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (s *Server) handleListPriceAlerts(c *gin.Context) {
	alerts, err := s.deps.PriceAlerts.List(c.Request.Context())
	if err != nil {
		internalError(c, "failed to list price alerts")
		return
	}
	items := make([]priceAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, priceAlertToResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alerts": items})
}

func (s *Server) handleCreatePriceAlert(c *gin.Context) {
	var body priceAlertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body")
		return
	}
	if body.TargetPrice == nil {
		badRequest(c, "target_price is required")
		return
	}
	a := alert.PriceAlert{
		Name:            body.Name,
		Symbol:          alert.NormalizeSymbol(body.Symbol),
		Condition:       alert.Condition(body.Condition),
		TargetPrice:     *body.TargetPrice,
		MessageTemplate: body.MessageTemplate,
		TargetID:        body.TargetID,
		IsActive:        true,
	}
	if a.MessageTemplate == "" {
		a.MessageTemplate = alert.DefaultPriceTemplate
	}
	if body.IsActive != nil {
		a.IsActive = *body.IsActive
	}
	if body.IsOneTime != nil {
		a.IsOneTime = *body.IsOneTime
	}
	if err := a.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.deps.PriceAlerts.Create(c.Request.Context(), &a); err != nil {
		internalError(c, "failed to create price alert")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "alert": priceAlertToResponse(a)})
}

func (s *Server) handleGetPriceAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := s.deps.PriceAlerts.Get(c.Request.Context(), id)
	if errors.Is(err, alert.ErrNotFound) {
		notFound(c, "price alert not found")
		return
	}
	if err != nil {
		internalError(c, "failed to load price alert")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alert": priceAlertToResponse(a)})
}

func (s *Server) handleUpdatePriceAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body priceAlertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body")
		return
	}
	a, err := s.deps.PriceAlerts.Get(c.Request.Context(), id)
	if errors.Is(err, alert.ErrNotFound) {
		notFound(c, "price alert not found")
		return
	}
	if err != nil {
		internalError(c, "failed to load price alert")
		return
	}

	if body.Name != "" {
		a.Name = body.Name
	}
	if body.Symbol != "" {
		a.Symbol = alert.NormalizeSymbol(body.Symbol)
	}
	if body.Condition != "" {
		a.Condition = alert.Condition(body.Condition)
	}
	if body.TargetPrice != nil {
		a.TargetPrice = *body.TargetPrice
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
	if body.IsOneTime != nil {
		a.IsOneTime = *body.IsOneTime
	}
	if err := a.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.deps.PriceAlerts.Update(c.Request.Context(), &a); err != nil {
		internalError(c, "failed to update price alert")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alert": priceAlertToResponse(a)})
}

func (s *Server) handleDeletePriceAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := s.deps.PriceAlerts.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, alert.ErrNotFound):
		notFound(c, "price alert not found")
	default:
		internalError(c, "failed to delete price alert")
	}
}

// handleResetPriceAlert re-arms a spent one-time alert so it can fire again.
func (s *Server) handleResetPriceAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := s.deps.PriceAlerts.ResetTriggered(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "alert re-armed"})
	case errors.Is(err, alert.ErrNotFound):
		notFound(c, "price alert not found")
	default:
		internalError(c, "failed to reset price alert")
	}
}
