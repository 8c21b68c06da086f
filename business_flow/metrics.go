package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	// Allocation calls partitioned by outcome
	asnAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asn_allocations_total",
			Help: "Total number of ASN allocation calls",
		},
		[]string{"result"},
	)

	asnRecordsPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asn_records_placed_total",
			Help: "Total number of placed records written by allocations",
		},
	)

	// Time spent inside allocate, including the wait for the cursor lock
	asnAllocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asn_allocation_duration_seconds",
			Help:    "ASN allocation latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	asnExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asn_exports_total",
			Help: "Total number of export workbooks requested",
		},
		[]string{"result"},
	)

	asnGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asn_generations_total",
			Help: "Total number of generation batches requested",
		},
		[]string{"result"},
	)
)

func outcome(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
