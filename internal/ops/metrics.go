package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal counts inbound chat updates by kind (message, callback).
	UpdatesTotal *prometheus.CounterVec
	// RepliesTotal counts replies sent back to operators.
	RepliesTotal prometheus.Counter
	// FlowCommitsTotal counts committed ledger mutations by flow.
	FlowCommitsTotal *prometheus.CounterVec
	// FlowRejectsTotal counts flows aborted or rejected by reason.
	FlowRejectsTotal *prometheus.CounterVec
)

const namespace = "qoymabot"

// InitMetrics registers the bot's Prometheus collectors. Call once at startup.
func InitMetrics() {
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Total number of inbound chat updates",
	}, []string{"kind"})

	RepliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replies_total",
		Help:      "Total number of replies sent to operators",
	})

	FlowCommitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flow_commits_total",
		Help:      "Total number of ledger mutations committed per flow",
	}, []string{"flow"})

	FlowRejectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flow_rejects_total",
		Help:      "Total number of flow inputs rejected",
	}, []string{"reason"})
}
