// Package metrics provides Prometheus metrics for the clickboard scheduler and API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// No character or session ids in labels: both are unbounded.

var (
	// CyclesTotal counts cycle triggers by outcome (started, skipped, locked, aborted, reconciled, discarded).
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clickboard_scheduler_cycles_total",
		Help: "Total number of scheduler cycle triggers, by outcome.",
	}, []string{"outcome"})

	// TicksSkippedTotal counts distribution ticks dropped by the re-entrancy guard.
	TicksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clickboard_scheduler_ticks_skipped_total",
		Help: "Total number of distribution ticks skipped because a previous tick was still running.",
	})

	// UnitsEmittedTotal counts synthetic unit events by direction.
	UnitsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clickboard_scheduler_units_emitted_total",
		Help: "Total number of synthetic unit events emitted, by direction.",
	}, []string{"direction"})

	// DeltasAppliedTotal counts reconciled delta writes by result (ok, error).
	DeltasAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clickboard_scheduler_deltas_applied_total",
		Help: "Total number of aggregated delta writes issued by the reconciler, by result.",
	}, []string{"result"})

	// CatalogRefreshTotal counts entity catalog refreshes by result (ok, error).
	CatalogRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clickboard_catalog_refresh_total",
		Help: "Total number of entity catalog refreshes, by result.",
	}, []string{"result"})

	// InvariantClampTotal counts emissions clamped to keep a job within its total.
	InvariantClampTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clickboard_scheduler_invariant_clamp_total",
		Help: "Total number of unit emissions clamped to a job's total.",
	})

	// ActiveJobs is the number of jobs in the running cycle.
	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clickboard_scheduler_active_jobs",
		Help: "Number of jobs in the currently running cycle.",
	})

	// CatalogSize is the number of entities in the cached catalog snapshot.
	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clickboard_catalog_entities",
		Help: "Number of entities in the cached catalog snapshot.",
	})

	// ReconcileDuration observes how long a reconciliation pass takes.
	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clickboard_scheduler_reconcile_duration_seconds",
		Help:    "Duration of reconciliation passes.",
		Buckets: prometheus.DefBuckets,
	})

	// BroadcastClients is the number of connected WebSocket clients.
	BroadcastClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clickboard_broadcast_clients",
		Help: "Number of connected WebSocket subscribers.",
	})
)
