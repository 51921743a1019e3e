// Package metrics provides Prometheus instrumentation for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationDuration tracks generation call latency per provider.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rojito_generation_duration_seconds",
			Help:    "Generation call duration in seconds",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "outcome"},
	)

	// GenerationsTotal counts generation calls per provider and outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rojito_generations_total",
			Help: "Total generation calls",
		},
		[]string{"provider", "outcome"},
	)

	// UpdatesTotal counts routed Telegram updates per event kind.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rojito_updates_total",
			Help: "Total routed Telegram updates",
		},
		[]string{"kind", "outcome"},
	)

	// StoreConflictsTotal counts optimistic write conflicts per key family.
	StoreConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rojito_store_conflicts_total",
			Help: "Total version conflicts on conditional writes",
		},
		[]string{"key"},
	)

	// BroadcastDeliveriesTotal counts fan-out deliveries per outcome.
	BroadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rojito_broadcast_deliveries_total",
			Help: "Total broadcast deliveries",
		},
		[]string{"outcome"},
	)

	// BroadcastCyclesTotal counts broadcast cycles per outcome.
	BroadcastCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rojito_broadcast_cycles_total",
			Help: "Total broadcast cycles",
		},
		[]string{"outcome"},
	)

	// ActiveDestinations reports the registry size per partition after each touch or prune.
	ActiveDestinations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rojito_active_destinations",
			Help: "Number of registered active destinations",
		},
		[]string{"partition"},
	)
)
