package main

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"alert-relay/internal/application/dispatch"
	"alert-relay/internal/application/poller"
	"alert-relay/internal/infrastructure/config"
	"alert-relay/internal/infrastructure/db"
	"alert-relay/internal/infrastructure/marketdata"
	"alert-relay/internal/infrastructure/notify"
	"alert-relay/internal/infrastructure/persistence/postgres"
	httpapi "alert-relay/internal/interface/http"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		log.WithField("error", err).Fatal("load config failed")
	}
	log.WithField("addr", cfg.HTTP.Addr).Info("configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Connect(ctx, cfg.DB)
	cancel()
	if err != nil {
		log.WithField("error", err).Fatal("database connection failed")
	}
	if pool == nil {
		log.Fatal("DB_DSN is required")
	}
	defer pool.Close()
	log.Info("database connected")

	targets := postgres.NewTargetRepo(pool)
	webhookAlerts := postgres.NewWebhookAlertRepo(pool)
	priceAlerts := postgres.NewPriceAlertRepo(pool)
	logs := postgres.NewLogRepo(pool)

	gateway := notify.NewTelegramGateway(cfg.Telegram.APIBase, cfg.Telegram.RequestTimeout)
	dispatcher := dispatch.NewDispatcher(webhookAlerts, logs, gateway)

	if cfg.Poller.IsEnabled() {
		prices := marketdata.NewProvider(cfg.MarketData.AlphaVantageKey, cfg.MarketData.RequestTimeout)
		p := poller.NewPoller(priceAlerts, prices, logs, gateway, cfg.Poller.Interval)
		go p.Run(context.Background())
	} else {
		log.Info("price poller disabled")
	}

	server := httpapi.NewServer(cfg, httpapi.Deps{
		DB:            pool,
		Targets:       targets,
		WebhookAlerts: webhookAlerts,
		PriceAlerts:   priceAlerts,
		Logs:          logs,
		Dispatcher:    dispatcher,
		Notifier:      gateway,
	})

	log.WithField("addr", cfg.HTTP.Addr).Info("starting HTTP server")
	if err := http.ListenAndServe(cfg.HTTP.Addr, server.Handler()); err != nil {
		log.WithField("error", err).Fatal("server stopped")
	}
}
