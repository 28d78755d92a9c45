package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitrelay_gateway_requests_total",
			Help: "Total number of access-gateway invocations",
		},
		[]string{"mode", "outcome"},
	)

	ACLDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitrelay_acl_denied_total",
			Help: "Total number of requests denied by ACL or IP restriction",
		},
		[]string{"reason"},
	)

	HookPhaseExit = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitrelay_hook_phase_exit_total",
			Help: "Total number of hook pipeline phase completions, by phase and exit status class",
		},
		[]string{"phase", "status"},
	)

	SelfInstallCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitrelay_hook_self_install_total",
			Help: "Total number of times the hook pipeline self-installed into a stock hooks directory",
		},
	)
)
