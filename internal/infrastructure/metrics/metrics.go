package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalhub_quotes_created_total",
		Help: "Total number of quote requests created.",
	})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalhub_quote_transitions_total",
		Help: "Total number of applied quote transitions, by target status.",
	},
		[]string{"to_status"},
	)

	DispatchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalhub_notification_dispatch_failures_total",
		Help: "Total number of notification dispatch units that failed and were queued for retry.",
	})

	RetriesExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalhub_notification_retries_exhausted_total",
		Help: "Total number of retry records abandoned after the attempt cap.",
	})

	SubscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentalhub_quote_subscribers",
		Help: "Current number of live quote subscription streams.",
	})
)
