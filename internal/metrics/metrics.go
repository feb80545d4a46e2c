package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters surfaced by the ingestion pipeline. Failures inside a cycle are
// absorbed at component boundaries, so these are the only place they remain
// visible besides logs.
var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidelinescanner_cycles_total",
		Help: "Ingestion cycles by outcome.",
	}, []string{"outcome"})

	RecordsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidelinescanner_records_fetched_total",
		Help: "Candidate records produced per source.",
	}, []string{"source"})

	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidelinescanner_source_failures_total",
		Help: "Scans that contributed zero records due to an error.",
	}, []string{"source"})

	EnrichmentFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidelinescanner_enrichment_fallbacks_total",
		Help: "Remote enrichment calls substituted by the heuristic fallback.",
	}, []string{"group"})

	Upserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidelinescanner_upserts_total",
		Help: "Store writes by outcome (inserted or updated).",
	}, []string{"outcome"})

	WriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guidelinescanner_write_failures_total",
		Help: "Single-record store writes that were skipped.",
	})
)

// Handler serves the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
