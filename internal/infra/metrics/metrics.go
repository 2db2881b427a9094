package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_saved_total",
			Help: "Lead writes per sink",
		},
		[]string{"topic", "sink", "outcome"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_notifications_total",
			Help: "Lead notification emails by outcome",
		},
		[]string{"outcome"},
	)
)

const (
	SinkRelational = "relational"
	SinkLog        = "log"

	OutcomeOK    = "ok"
	OutcomeError = "error"

	NotificationSent    = "sent"
	NotificationSkipped = "skipped"
	NotificationFailed  = "failed"
	NotificationDropped = "dropped"
)

func RecordLeadWrite(topic, sink string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	leadsSaved.WithLabelValues(topic, sink, outcome).Inc()
}

func RecordNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}
