package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProxyReconcileFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitrelay_proxy_reconcile_failed_total",
			Help: "Total number of proxy reconcile attempts that ended without agreement",
		},
		[]string{"phase"},
	)

	ProxyReconcileCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitrelay_proxy_reconcile_total",
			Help: "Total number of proxy reconcile attempts",
		},
		[]string{"phase"},
	)

	ProxyReconcileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gitrelay_proxy_reconcile_duration_seconds",
			Help:    "Proxy reconcile duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"phase"},
	)

	ProxyRefsUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitrelay_proxy_refs_updated_total",
			Help: "Total number of refs updated by the proxy reconciler",
		},
		[]string{"direction"},
	)

	ProxyRefsTooDivergent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitrelay_proxy_refs_too_divergent_total",
			Help: "Total number of refs skipped because neither side was an ancestor of the other",
		},
	)
)

func ProxyReconcileSucceeded(phase string, start time.Time) {
	ProxyReconcileCount.WithLabelValues(phase).Inc()
	ProxyReconcileDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

func ProxyReconcileErrored(phase string, start time.Time) {
	ProxyReconcileCount.WithLabelValues(phase).Inc()
	ProxyReconcileFailed.WithLabelValues(phase).Inc()
	ProxyReconcileDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}
