// Package metrics provides Prometheus metrics for the procurement service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal tracks inbox sync runs by result (ok, busy, inbox_error, failed).
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procureai",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of inbox sync runs by result",
		},
		[]string{"result"},
	)

	// SyncEmailsTotal tracks how each candidate email was handled.
	SyncEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procureai",
			Subsystem: "sync",
			Name:      "emails_total",
			Help:      "Candidate vendor emails by outcome",
		},
		[]string{"outcome"},
	)

	// AIRequestsTotal tracks model calls by operation and status.
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procureai",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Total number of AI gateway calls",
		},
		[]string{"operation", "status"},
	)

	// AIRequestDuration tracks model call latency including retries.
	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "procureai",
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Duration of AI gateway calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"operation"},
	)

	// MailSentTotal tracks outbound invitations.
	MailSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procureai",
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outbound RFP invitations by status",
		},
		[]string{"status"},
	)
)
