package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexdraft_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AccessChecks counts document permission evaluations and their outcome.
	AccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexdraft_access_checks_total",
			Help: "Total number of document access checks",
		},
		[]string{"minimum", "result"},
	)

	// PresenceSessions tracks currently connected presence sessions.
	PresenceSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexdraft_presence_sessions",
			Help: "Number of live document presence sessions",
		},
	)

	// PresenceEvents counts events fanned out by the presence hub.
	PresenceEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexdraft_presence_events_total",
			Help: "Total number of presence events broadcast to peers",
		},
		[]string{"event"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexdraft_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
