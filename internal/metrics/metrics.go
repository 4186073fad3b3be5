// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "settleup"

var (
	// RPCRequests counts finished RPCs by procedure and Connect code.
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Number of RPCs handled, by procedure and result code.",
	}, []string{"procedure", "code"})

	// RPCDuration observes RPC latency by procedure.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "RPC latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure"})

	// ValidationErrors counts ledgers rejected by the calculator.
	ValidationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_errors_total",
		Help:      "Expenses or ledgers rejected as invalid.",
	})

	// ConsistencyFaults counts computations where money was not conserved.
	// Any non-zero value is a bug.
	ConsistencyFaults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consistency_faults_total",
		Help:      "Balance or settlement computations that failed the conservation check.",
	})

	// TransfersPerSimplification observes how many transfers each
	// simplification produced.
	TransfersPerSimplification = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transfers_per_simplification",
		Help:      "Number of transfers emitted by one debt simplification.",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})
)
