// Package metrics exposes Prometheus collectors for the order pipeline
// and the pair engine. Collectors are registered on the default registry
// at init; Handler serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrdersSubmitted counts orders handed to the terminal, by symbol, side
// and kind.
var OrdersSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "termlink",
		Subsystem: "orders",
		Name:      "submitted_total",
		Help:      "Orders submitted to the terminal",
	},
	[]string{"symbol", "side", "kind"},
)

// OrdersRejected counts definitive rejections, by terminal return code.
var OrdersRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "termlink",
		Subsystem: "orders",
		Name:      "rejected_total",
		Help:      "Orders the terminal rejected",
	},
	[]string{"symbol", "code"},
)

// StopsClamped counts protective levels pulled out to the broker's
// minimum distance during preflight.
var StopsClamped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "termlink",
		Subsystem: "orders",
		Name:      "stops_clamped_total",
		Help:      "Stop or take-profit levels clamped to the minimum distance",
	},
	[]string{"symbol", "level"},
)

// PairsResolved counts finished pair runs by resolution.
var PairsResolved = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "termlink",
		Subsystem: "pairs",
		Name:      "resolved_total",
		Help:      "Paired-order runs by terminal resolution",
	},
	[]string{"symbol", "resolution"},
)

// PairPollErrors counts transient poll failures that were skipped.
var PairPollErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "termlink",
		Subsystem: "pairs",
		Name:      "poll_errors_total",
		Help:      "Transient ticket poll errors absorbed during monitoring",
	},
)

// PairDuration observes how long pairs spend from submission to
// resolution.
var PairDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "termlink",
		Subsystem: "pairs",
		Name:      "duration_seconds",
		Help:      "Time from leg submission to resolution",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~68m
	},
)

// Handler serves the default registry, for mounting at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
