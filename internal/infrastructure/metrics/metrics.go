package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// WebhookDispatches counts inbound webhook dispatches by outcome.
	WebhookDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_relay_webhook_dispatches_total",
			Help: "Inbound webhook dispatches by outcome.",
		},
		[]string{"status"},
	)

	// PollCycles counts completed price poll cycles.
	PollCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_relay_poll_cycles_total",
			Help: "Completed price poll cycles.",
		},
	)

	// PriceAlertsTriggered counts price alerts whose condition fired.
	PriceAlertsTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_relay_price_alerts_triggered_total",
			Help: "Price alerts whose trigger condition was met.",
		},
	)

	// Deliveries counts Telegram deliveries by source and outcome.
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_relay_deliveries_total",
			Help: "Telegram deliveries by alert source and outcome.",
		},
		[]string{"source", "status"},
	)
)

func init() {
	prometheus.MustRegister(WebhookDispatches, PollCycles, PriceAlertsTriggered, Deliveries)
}
