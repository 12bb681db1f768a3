package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ruleMutations counts successful rule writes per variant and action.
	ruleMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_sync_rule_mutations_total",
		Help: "Total number of successful rule mutations by variant and action",
	}, []string{"variant", "action"}) // action: add, update, delete

	// ruleMutationErrors counts failed store calls per variant and action.
	ruleMutationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_sync_rule_mutation_errors_total",
		Help: "Total number of failed rule mutations by variant and action",
	}, []string{"variant", "action"})

	// recordsProcessed counts filtered records fed into reconciliation.
	recordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_sync_records_processed_total",
		Help: "Total number of import records processed by variant",
	}, []string{"variant"})

	// runDuration tracks reconciliation run time per variant.
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discount_sync_run_duration_seconds",
		Help:    "Time taken by one reconciliation run",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"variant"})
)
