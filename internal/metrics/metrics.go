package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP метрики
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Метрики напоминаний
	ReminderEmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_emails_total",
			Help: "Reminder emails by result (sent, failed)",
		},
		[]string{"result"},
	)
	ReminderRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_runs_total",
			Help: "Reminder scan runs by outcome (ok, error)",
		},
		[]string{"outcome"},
	)
	ReminderRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_run_duration_seconds",
			Help:    "Duration of a reminder scan in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// Метрики подписок
	SubscriptionRenewalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_renewals_total",
			Help: "Total number of manual subscription renewals",
		},
	)
)

// InitMetrics регистрирует коллекторы в глобальном реестре; вызывается один раз из main.
func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestsInFlight)

	prometheus.MustRegister(ReminderEmailsTotal)
	prometheus.MustRegister(ReminderRunsTotal)
	prometheus.MustRegister(ReminderRunDuration)

	prometheus.MustRegister(SubscriptionRenewalsTotal)
}
