// Package metrics holds the prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizblog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizblog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MailSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizblog_mail_sent_total",
			Help: "Notification emails handed to the mail transport, by outcome",
		},
		[]string{"template", "result"}, // result: ok, failed, rejected
	)

	MailCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quizblog_mail_circuit_state",
			Help: "SMTP circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	HubClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quizblog_hub_clients",
			Help: "Connected live notification clients",
		},
	)

	CascadeDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizblog_cascade_deletes_total",
			Help: "Container deletions, by container kind and outcome",
		},
		[]string{"kind", "result"},
	)
)
