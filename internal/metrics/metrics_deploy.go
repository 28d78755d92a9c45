package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeployBuildFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitrelay_deploy_build_failed_total",
			Help: "Number of times the deploy daemon's build command has failed",
		},
	)

	DeployBuildCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitrelay_deploy_build_total",
			Help: "Total number of times the deploy daemon has run its build command",
		},
	)

	DeployBuildLockContended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitrelay_deploy_build_lock_contended_total",
			Help: "Total number of times the build lock was already held by another instance",
		},
	)

	DeployBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gitrelay_deploy_build_duration_seconds",
			Help:    "Deploy daemon build command duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	DeployLoopIterations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitrelay_deploy_loop_iterations_total",
			Help: "Total number of deploy daemon pull-loop iterations",
		},
	)

	DeployPathologyMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitrelay_deploy_pathology_matched_total",
			Help: "Total number of times a named pathology pattern matched the loop's git output",
		},
		[]string{"pathology"},
	)

	DeployRespawnCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitrelay_deploy_respawn_total",
			Help: "Total number of times the deploy daemon re-exec'd itself after detecting a binary update",
		},
	)
)
