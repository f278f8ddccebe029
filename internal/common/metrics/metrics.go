// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HeartbeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_heartbeats_total",
			Help: "Total number of heartbeat calls by outcome",
		},
		[]string{"status"},
	)

	OnlineSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_online_sessions",
			Help: "Online session count as of the last heartbeat",
		},
	)

	PrunedEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_pruned_entries_total",
			Help: "Total number of stale presence entries removed",
		},
	)

	FocusSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focus_sessions_total",
			Help: "Focus session lifecycle transitions",
		},
		[]string{"event"}, // started, completed, cancelled, restored, discarded
	)

	BackendSyncFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focus_backend_sync_failures_total",
			Help: "Best-effort durable writes that failed",
		},
		[]string{"op"},
	)
)
