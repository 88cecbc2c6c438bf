package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsRegistered is a Prometheus counter for tracking the total number of products registered.
	ProductsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_registered_total",
		Help: "The total number of products registered",
	})

	// ProductsTransferred is a Prometheus counter for tracking the total number of ownership transfers.
	ProductsTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_transferred_total",
		Help: "The total number of product ownership transfers",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of product updates.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "The total number of product updates",
	})

	// HashMismatches counts verification reads where the recomputed hash did not match the ledger.
	HashMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hash_mismatches_total",
		Help: "The total number of reads where the content hash did not match the ledger",
	})

	// LedgerUnavailable counts operations degraded or aborted because the ledger node was unreachable.
	LedgerUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_unavailable_total",
		Help: "The total number of operations that hit an unavailable ledger node",
	})

	// ReconcileTasksEnqueued counts reconcile tasks recorded after a failed mirror write.
	ReconcileTasksEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_tasks_enqueued_total",
		Help: "The total number of reconcile tasks recorded",
	})

	// ReconcileTasksReplayed counts reconcile tasks successfully replayed by the worker.
	ReconcileTasksReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_tasks_replayed_total",
		Help: "The total number of reconcile tasks successfully replayed",
	})
)
