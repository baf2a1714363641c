// Package observability registers the Prometheus metrics exposed on
// /metrics. Counters cover the three export modes, CSV ingestion, and
// template merges.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ExportsTotal counts CSV downloads by mode (raw, blank, listings).
	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relister_exports_total",
			Help: "CSV exports served, by mode.",
		},
		[]string{"mode"},
	)

	// UploadRowsAccepted counts data rows accepted from CSV uploads.
	UploadRowsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relister_upload_rows_accepted_total",
			Help: "CSV upload rows accepted into the product store.",
		},
	)

	// UploadRowsSkipped counts upload rows dropped for shape or validation.
	UploadRowsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relister_upload_rows_skipped_total",
			Help: "CSV upload rows dropped during decode or ingest.",
		},
	)

	// MergeDuration observes template merge latency per record.
	MergeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relister_merge_duration_seconds",
			Help:    "Template merge duration per record.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ScrapeRequests counts calls proxied to the scraping API.
	ScrapeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relister_scrape_requests_total",
			Help: "Requests proxied to the scraping API, by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register installs all metrics into the default registry. Call once at
// startup.
func Register() {
	prometheus.MustRegister(
		ExportsTotal,
		UploadRowsAccepted,
		UploadRowsSkipped,
		MergeDuration,
		ScrapeRequests,
	)
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
