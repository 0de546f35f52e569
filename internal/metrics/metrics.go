// Package metrics holds the Prometheus instruments used across shortly.  All
// collectors are registered with the global registry, so mounting
// promhttp.Handler() in cmd/web is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Submissions counts Submit calls by flow ("shorten", "qr") and outcome
	// ("rejected", "busy", "succeeded", "failed", "error").
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortly_submissions_total",
			Help: "Form submissions by flow and outcome.",
		}, []string{"flow", "outcome"})

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortly_api_request_duration_seconds",
			Help:    "Latency of upstream API calls by operation and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "outcome"})

	NotificationsShown = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortly_notifications_shown_total",
			Help: "Notifications shown by kind.",
		}, []string{"kind"})

	// NotificationsDismissed is labelled by reason: "timeout", "user",
	// "replaced", or "closed".
	NotificationsDismissed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortly_notifications_dismissed_total",
			Help: "Notifications removed by reason.",
		}, []string{"reason"})

	ActiveWorkspaces = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortly_active_workspaces",
			Help: "Visitor workspaces currently held in memory.",
		})

	WorkspaceEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortly_workspace_evict_total",
			Help: "Cumulative number of workspaces evicted from the session store.",
		})
)

func init() {
	prometheus.MustRegister(
		Submissions,
		APIRequestDuration,
		NotificationsShown,
		NotificationsDismissed,
		ActiveWorkspaces,
		WorkspaceEvictTotal,
	)
}
