// Package services – Prometheus instrumentation for orchestration outcomes.
//
// HTTP-level traffic metrics live in the transport middleware; the counters
// here track business outcomes that status codes alone cannot convey, in
// particular how often the ERP enrichment degrades.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// intakeOutcomes counts processed intakes by terminal outcome:
	// created, replayed, conflict, helpdesk_error.
	intakeOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_requests_total",
			Help: "Total number of processed intake requests by outcome.",
		},
		[]string{"outcome"},
	)

	// erpEnrichment counts the best-effort ERP issue creation per intake:
	// ok, skipped, failed.
	erpEnrichment = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_erp_enrichment_total",
			Help: "Total number of ERP issue creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// closeSyncOutcomes counts reconciliation runs: updated, unlinked, error.
	closeSyncOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "close_sync_total",
			Help: "Total number of close-sync reconciliations by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(intakeOutcomes, erpEnrichment, closeSyncOutcomes)
}
