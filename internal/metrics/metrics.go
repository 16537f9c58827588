// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal counts sync runs by outcome
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropshipping_sync_runs_total",
		Help: "Total synchronization runs by status",
	}, []string{"status"})

	// SyncDuration observes wall-clock sync run duration
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dropshipping_sync_duration_seconds",
		Help:    "Synchronization run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// ItemsSynced counts catalog item writes by kind
	ItemsSynced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropshipping_items_synced_total",
		Help: "Catalog items written during sync by kind",
	}, []string{"kind"})

	// OrdersDispatched counts supplier order legs placed
	OrdersDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dropshipping_orders_dispatched_total",
		Help: "Supplier order legs placed",
	})

	// AlertsRaised counts alerts written after dedup
	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropshipping_alerts_raised_total",
		Help: "System alerts raised by type",
	}, []string{"type"})

	// ApiCallLatency observes supplier API latency
	ApiCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dropshipping_api_call_latency_seconds",
		Help:    "Supplier API call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"supplier_type"})
)
