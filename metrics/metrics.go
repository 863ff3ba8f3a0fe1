// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerWrites counts batch and zine writes by operation and outcome
// (ok, validation, unauthorized, not_found, transport, error).
var LedgerWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "zine_ledger",
	Subsystem: "ledger",
	Name:      "writes_total",
	Help:      "Ledger write operations by operation and outcome.",
}, []string{"op", "outcome"})

// StatsComputations counts aggregation runs by scope (zine, user, dashboard).
var StatsComputations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "zine_ledger",
	Subsystem: "aggregation",
	Name:      "computations_total",
	Help:      "Aggregation runs by scope.",
}, []string{"scope"})

// BatchesAggregated observes how many batches one aggregation folded.
var BatchesAggregated = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "zine_ledger",
	Subsystem: "aggregation",
	Name:      "batches",
	Help:      "Number of batches folded per aggregation.",
	Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
}, []string{"scope"})

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "zine_ledger",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern and status code.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// CheckinsDue is the number of active batches past their next check-in
// as of the latest sweep.
var CheckinsDue = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "zine_ledger",
	Subsystem: "checkins",
	Name:      "due",
	Help:      "Active batches whose next check-in has passed.",
})

var CheckinSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "zine_ledger",
	Subsystem: "checkins",
	Name:      "sweeps_total",
	Help:      "Check-in sweeps by outcome.",
}, []string{"outcome"})
