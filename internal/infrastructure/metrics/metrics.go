// Package metrics exposes the sync core's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"commerce-core-square-layer/internal/domain"
)

// Metrics holds the collectors for sync runs and provider traffic. Construct
// one per process with a dedicated registry so tests can instantiate
// isolated instances.
type Metrics struct {
	SyncRuns       *prometheus.CounterVec
	SyncDuration   *prometheus.HistogramVec
	ItemsAffected  *prometheus.CounterVec
	ConflictsFound prometheus.Counter
	ThrottledWaits prometheus.Counter
}

// New registers the sync collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "square_sync_runs_total",
			Help: "Completed sync runs by type, direction and terminal status.",
		}, []string{"sync_type", "direction", "status"}),
		SyncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "square_sync_duration_seconds",
			Help:    "Duration of sync runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"sync_type", "direction"}),
		ItemsAffected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "square_sync_items_total",
			Help: "Items processed by sync runs, by outcome.",
		}, []string{"sync_type", "outcome"}),
		ConflictsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "square_sync_conflicts_total",
			Help: "Field-level conflicts detected during catalog syncs.",
		}),
		ThrottledWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "square_rate_limit_throttled_total",
			Help: "Times the client-side rate limiter deferred a call.",
		}),
	}
	reg.MustRegister(m.SyncRuns, m.SyncDuration, m.ItemsAffected, m.ConflictsFound, m.ThrottledWaits)
	return m
}

// ObserveRun records one completed sync run.
func (m *Metrics) ObserveRun(syncType domain.SyncType, direction domain.SyncDirection, status domain.SyncStatus, durationSeconds float64) {
	m.SyncRuns.WithLabelValues(string(syncType), string(direction), string(status)).Inc()
	m.SyncDuration.WithLabelValues(string(syncType), string(direction)).Observe(durationSeconds)
}
