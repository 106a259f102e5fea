package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricNodeSuccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiverpc",
		Name:      "node_success_total",
		Help:      "Total number of successful attempts per node and api.",
	}, []string{"node", "api"})

	MetricNodeFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiverpc",
		Name:      "node_failure_total",
		Help:      "Total number of network level failures per node and api.",
	}, []string{"node", "api"})

	MetricNodeApiFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiverpc",
		Name:      "node_api_failure_total",
		Help:      "Total number of api level failures (plugin or method not available) per node.",
	}, []string{"node", "api"})

	MetricNodeConsecutiveFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hiverpc",
		Name:      "node_consecutive_failures",
		Help:      "Current consecutive failure count of a node.",
	}, []string{"node"})

	MetricNodeHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hiverpc",
		Name:      "node_head_block",
		Help:      "Last head block number reported by a node.",
	}, []string{"node"})

	MetricBestKnownHeadBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hiverpc",
		Name:      "best_known_head_block",
		Help:      "Highest head block number reported by any node.",
	})

	MetricNodeAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hiverpc",
		Name:      "node_attempt_duration_seconds",
		Help:      "Duration of single attempts towards a node.",
		Buckets: []float64{
			0.025, // 25 ms
			0.05,  // 50 ms
			0.1,   // 100 ms
			0.25,  // 250 ms
			0.5,   // 500 ms
			1,     // 1 s
			2.5,   // 2.5 s
			5,     // 5 s
			10,    // 10 s
			30,    // 30 s
		},
	}, []string{"node"})

	MetricFailoverTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiverpc",
		Name:      "failover_total",
		Help:      "Total number of switches from one node to another.",
	}, []string{"from", "to", "kind"})

	MetricRoundsExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hiverpc",
		Name:      "rounds_exhausted_total",
		Help:      "Total number of calls that gave up after spending every failover round.",
	}, []string{"api"})
)
