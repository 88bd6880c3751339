package poller

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"alert-relay/internal/domain/alert"
	"alert-relay/internal/domain/marketdata"
	"alert-relay/internal/infrastructure/metrics"
)

// AlertStore provides the working set of a poll cycle and records triggers.
type AlertStore interface {
	ListActive(ctx context.Context) ([]alert.PriceAlertWithTarget, error)
	MarkTriggered(ctx context.Context, id int64, at time.Time) error
}

// PriceSource returns the latest quote for a symbol.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (marketdata.Quote, error)
}

// LogWriter records one row per triggered delivery.
type LogWriter interface {
	Insert(ctx context.Context, l *alert.NotificationLog) error
}

// Gateway delivers a rendered message to a Telegram chat.
type Gateway interface {
	Send(ctx context.Context, botToken, chatID, text string) error
}

// Poller evaluates active price alerts on a fixed interval. Cycles run
// synchronously: a slow cycle delays the next tick rather than overlapping
// with it.
type Poller struct {
	alerts   AlertStore
	prices   PriceSource
	logs     LogWriter
	gateway  Gateway
	interval time.Duration
}

func NewPoller(alerts AlertStore, prices PriceSource, logs LogWriter, gateway Gateway, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{alerts: alerts, prices: prices, logs: logs, gateway: gateway, interval: interval}
}

// Run blocks until ctx is cancelled, executing one cycle immediately and then
// one per interval.
func (p *Poller) Run(ctx context.Context) {
	log.WithField("interval", p.interval).Info("price poller started")
	p.Cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("price poller stopped")
			return
		case <-ticker.C:
			p.Cycle(ctx)
		}
	}
}

// Cycle evaluates every active alert once. A panic in one alert never takes
// down the rest of the cycle, and a panic anywhere never takes down the
// process.
func (p *Poller) Cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("poll cycle panicked")
		}
	}()

	items, err := p.alerts.ListActive(ctx)
	if err != nil {
		log.WithField("error", err).Error("failed to list active price alerts")
		return
	}

	// One quote per symbol per cycle, shared across alerts watching it.
	quotes := make(map[string]marketdata.Quote)
	for _, item := range items {
		p.evaluate(ctx, item, quotes)
	}
	metrics.PollCycles.Inc()
}

func (p *Poller) evaluate(ctx context.Context, item alert.PriceAlertWithTarget, quotes map[string]marketdata.Quote) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"alert_id": item.Alert.ID, "panic": r}).
				Error("price alert evaluation panicked")
		}
	}()

	a := item.Alert
	if a.Spent() {
		return
	}

	symbol := alert.NormalizeSymbol(a.Symbol)
	quote, ok := quotes[symbol]
	if !ok {
		var err error
		quote, err = p.prices.GetPrice(ctx, symbol)
		if err != nil {
			if errors.Is(err, marketdata.ErrUnavailable) {
				// Transient market data outage, retry next cycle.
				log.WithFields(log.Fields{"symbol": symbol, "error": err}).
					Debug("price unavailable, skipping alert this cycle")
			} else {
				log.WithFields(log.Fields{"symbol": symbol, "error": err}).
					Warn("price fetch failed")
			}
			return
		}
		quotes[symbol] = quote
	}

	if !a.ShouldTrigger(quote.Price) {
		return
	}
	metrics.PriceAlertsTriggered.Inc()

	message := p.renderMessage(a, quote)
	payload, _ := json.Marshal(map[string]interface{}{
		"symbol":       symbol,
		"price":        quote.Price,
		"target_price": a.TargetPrice,
		"condition":    string(a.Condition),
	})

	sendErr := p.gateway.Send(ctx, item.Target.BotToken, item.Target.ChatID, message)

	row := alert.NotificationLog{
		PriceAlertID: &a.ID,
		Payload:      string(payload),
		MessageSent:  message,
		Status:       alert.StatusSuccess,
	}
	if sendErr != nil {
		row.Status = alert.StatusFailed
		row.ErrorMessage = sendErr.Error()
		metrics.Deliveries.WithLabelValues("price", "failed").Inc()
		log.WithFields(log.Fields{"alert_id": a.ID, "error": sendErr}).
			Warn("price alert delivery failed")
	} else {
		metrics.Deliveries.WithLabelValues("price", "success").Inc()
		log.WithFields(log.Fields{"alert_id": a.ID, "symbol": symbol, "price": quote.Price}).
			Info("price alert delivered")
	}
	if err := p.logs.Insert(ctx, &row); err != nil {
		log.WithFields(log.Fields{"alert_id": a.ID, "error": err}).
			Error("failed to write notification log")
	}

	// One-time alerts disarm on the price event itself, delivered or not;
	// only an explicit reset re-arms them. Repeating alerts are never marked.
	if a.IsOneTime {
		if err := p.alerts.MarkTriggered(ctx, a.ID, quote.ObservedAt); err != nil {
			log.WithFields(log.Fields{"alert_id": a.ID, "error": err}).
				Error("failed to mark alert triggered")
		}
	}
}

func (p *Poller) renderMessage(a alert.PriceAlert, quote marketdata.Quote) string {
	tmpl := a.MessageTemplate
	if tmpl == "" {
		tmpl = alert.DefaultPriceTemplate
	}
	return alert.Render(tmpl, map[string]string{
		"symbol":        alert.NormalizeSymbol(a.Symbol),
		"current_price": formatPrice(quote.Price),
		"target_price":  formatPrice(a.TargetPrice),
		"alert_type":    string(a.Condition),
	})
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
