package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alert-relay/internal/domain/alert"
	"alert-relay/internal/infrastructure/config"
)

const (
	errCodeBadRequest     = "BAD_REQUEST"
	errCodeNotFound       = "NOT_FOUND"
	errCodeTargetInUse    = "TARGET_IN_USE"
	errCodeTargetInactive = "TARGET_INACTIVE"
	errCodeDelivery       = "DELIVERY_FAILED"
	errCodeInternal       = "INTERNAL_ERROR"
)

// maxWebhookBody caps inbound webhook payloads. TradingView alerts are tiny;
// anything near this limit is abuse.
const maxWebhookBody = 1 << 20

// TargetStore is the persistence surface for Telegram targets.
type TargetStore interface {
	Create(ctx context.Context, t *alert.TelegramTarget) error
	Get(ctx context.Context, id int64) (alert.TelegramTarget, error)
	List(ctx context.Context) ([]alert.TelegramTarget, error)
	Update(ctx context.Context, t *alert.TelegramTarget) error
	Delete(ctx context.Context, id int64) error
}

// WebhookAlertStore is the persistence surface for webhook alert configs.
type WebhookAlertStore interface {
	Create(ctx context.Context, a *alert.WebhookAlert) error
	Get(ctx context.Context, id int64) (alert.WebhookAlert, error)
	List(ctx context.Context) ([]alert.WebhookAlert, error)
	Update(ctx context.Context, a *alert.WebhookAlert) error
	Delete(ctx context.Context, id int64) error
	RegenerateKey(ctx context.Context, id int64) (string, error)
}

// PriceAlertStore is the persistence surface for price alerts.
type PriceAlertStore interface {
	Create(ctx context.Context, a *alert.PriceAlert) error
	Get(ctx context.Context, id int64) (alert.PriceAlert, error)
	List(ctx context.Context) ([]alert.PriceAlert, error)
	Update(ctx context.Context, a *alert.PriceAlert) error
	Delete(ctx context.Context, id int64) error
	ResetTriggered(ctx context.Context, id int64) error
}

// LogStore lists notification log pages.
type LogStore interface {
	List(ctx context.Context, filter alert.LogFilter) ([]alert.NotificationLog, int, error)
}

// Dispatcher handles one inbound webhook.
type Dispatcher interface {
	Dispatch(ctx context.Context, key string, body []byte) (string, error)
}

// Notifier probes a Telegram target.
type Notifier interface {
	TestConnection(ctx context.Context, botToken, chatID string) error
}

// Deps bundles everything the server routes to.
type Deps struct {
	DB            *sql.DB
	Targets       TargetStore
	WebhookAlerts WebhookAlertStore
	PriceAlerts   PriceAlertStore
	Logs          LogStore
	Dispatcher    Dispatcher
	Notifier      Notifier
}

// Server wires the HTTP routes to the application layer.
type Server struct {
	engine *gin.Engine
	cfg    config.Config
	deps   Deps
}

func NewServer(cfg config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), corsMiddleware())

	s := &Server{engine: engine, cfg: cfg, deps: deps}
	s.registerRoutes()
	return s
}

// Handler returns the route handler for mounting on an HTTP server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.POST("/webhook/:key", s.handleWebhook)
	s.engine.GET("/api/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/targets", s.handleListTargets)
		api.POST("/targets", s.handleCreateTarget)
		api.GET("/targets/:id", s.handleGetTarget)
		api.PUT("/targets/:id", s.handleUpdateTarget)
		api.DELETE("/targets/:id", s.handleDeleteTarget)
		api.POST("/targets/:id/test", s.handleTestTarget)

		api.GET("/alerts/webhook", s.handleListWebhookAlerts)
		api.POST("/alerts/webhook", s.handleCreateWebhookAlert)
		api.GET("/alerts/webhook/:id", s.handleGetWebhookAlert)
		api.PUT("/alerts/webhook/:id", s.handleUpdateWebhookAlert)
		api.DELETE("/alerts/webhook/:id", s.handleDeleteWebhookAlert)
		api.POST("/alerts/webhook/:id/regenerate-key", s.handleRegenerateWebhookKey)

		api.GET("/alerts/price", s.handleListPriceAlerts)
		api.POST("/alerts/price", s.handleCreatePriceAlert)
		api.GET("/alerts/price/:id", s.handleGetPriceAlert)
		api.PUT("/alerts/price/:id", s.handleUpdatePriceAlert)
		api.DELETE("/alerts/price/:id", s.handleDeletePriceAlert)
		api.POST("/alerts/price/:id/reset", s.handleResetPriceAlert)

		api.GET("/logs", s.handleListLogs)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "not_configured"
	if s.deps.DB != nil {
		dbStatus = "unavailable"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err == nil {
			dbStatus = "ok"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"db":             dbStatus,
		"poller_enabled": s.cfg.Poller.IsEnabled(),
		"timestamp":      time.Now().Unix(),
	})
}
