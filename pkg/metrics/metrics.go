// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus instrumentation for the burst buffer
// state engine and the parallel RPC agent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the instruments a single plugin instance reports.
// Components take a *Collector rather than reaching for package-level
// globals, so multiple independent BBSE instances in the same process
// can each register under their own label.
type Collector struct {
	UsedSpace   prometheus.Gauge
	TotalSpace  prometheus.Gauge
	Allocations prometheus.Gauge
	Users       prometheus.Gauge

	AccountingUnderflows prometheus.Counter

	HelperDuration prometheus.Histogram
	HelperFailures prometheus.Counter
	PoolEntries    prometheus.Gauge

	RPCTargetsTotal    *prometheus.CounterVec // labeled by terminal state: done|failed
	RPCDispatchSeconds prometheus.Histogram

	SnapshotRequests *prometheus.HistogramVec
}

// New creates a Collector and registers its instruments with reg. plugin
// identifies the instance in the "plugin" constant label, so metrics from
// more than one BBSE instance in the same process don't collide.
func New(reg prometheus.Registerer, plugin string) *Collector {
	labels := prometheus.Labels{"plugin": plugin}

	c := &Collector{
		UsedSpace: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bb",
			Name:        "used_space_units",
			Help:        "Sum of Alloc.size across all allocations, in granularity units.",
			ConstLabels: labels,
		}),
		TotalSpace: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bb",
			Name:        "total_space_units",
			Help:        "Total burst buffer capacity known to the plugin, in granularity units.",
			ConstLabels: labels,
		}),
		Allocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bb",
			Name:        "allocations",
			Help:        "Number of Alloc records currently held in the allocation table.",
			ConstLabels: labels,
		}),
		Users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bb",
			Name:        "users",
			Help:        "Number of User records currently held in the user table.",
			ConstLabels: labels,
		}),
		AccountingUnderflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bb",
			Name:        "accounting_underflows_total",
			Help:        "Times remove_user_load clamped a counter to zero instead of going negative.",
			ConstLabels: labels,
		}),
		HelperDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "bb",
			Name:        "helper_duration_seconds",
			Help:        "Wall-clock time spent running the pool-importer helper program.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		HelperFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bb",
			Name:        "helper_failures_total",
			Help:        "Helper invocations that returned empty output, failed to parse, or timed out.",
			ConstLabels: labels,
		}),
		PoolEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bb",
			Name:        "pool_entries",
			Help:        "Number of PoolEntry records from the most recent successful import.",
			ConstLabels: labels,
		}),
		RPCTargetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "bb",
			Name:        "rpc_targets_total",
			Help:        "Parallel RPC agent targets reaching a terminal state, by state.",
			ConstLabels: labels,
		}, []string{"state"}),
		RPCDispatchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "bb",
			Name:        "rpc_dispatch_seconds",
			Help:        "Wall-clock time from agent start until the watchdog observes all targets terminal.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		SnapshotRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "bb",
			Name:        "snapshot_request_seconds",
			Help:        "Latency of snapshot server requests, by path.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"path"}),
	}

	reg.MustRegister(
		c.UsedSpace, c.TotalSpace, c.Allocations, c.Users,
		c.AccountingUnderflows, c.HelperDuration, c.HelperFailures, c.PoolEntries,
		c.RPCTargetsTotal, c.RPCDispatchSeconds, c.SnapshotRequests,
	)
	return c
}

// ObserveSnapshotRequest records one HTTP request served by the snapshot
// server.
func (c *Collector) ObserveSnapshotRequest(path string, d time.Duration) {
	if c == nil {
		return
	}
	c.SnapshotRequests.WithLabelValues(path).Observe(d.Seconds())
}

// ObserveHelper records one pool-importer helper invocation.
func (c *Collector) ObserveHelper(d time.Duration, ok bool) {
	if c == nil {
		return
	}
	c.HelperDuration.Observe(d.Seconds())
	if !ok {
		c.HelperFailures.Inc()
	}
}

// ObserveRPCTarget records one parallel RPC agent target reaching DONE or
// FAILED.
func (c *Collector) ObserveRPCTarget(state string) {
	if c == nil {
		return
	}
	c.RPCTargetsTotal.WithLabelValues(state).Inc()
}

// NoOp returns a Collector whose instruments are unregistered and safe to
// call on a nil receiver's methods; used by callers that don't want to wire
// a registry (tests, one-off tools).
func NoOp() *Collector {
	return New(prometheus.NewRegistry(), "noop")
}
