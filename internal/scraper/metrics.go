package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraper_pages_processed_total",
		Help: "Result pages fetched and classified, by platform, strategy and classification.",
	}, []string{"platform", "strategy", "classification"})

	strategyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraper_strategy_errors_total",
		Help: "Fetch or resolve failures that advanced the funnel to the next strategy.",
	}, []string{"platform", "strategy"})

	recordsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraper_records_extracted_total",
		Help: "Validated records produced from winning pages.",
	}, []string{"platform"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scraper_query_duration_seconds",
		Help:    "Wall time of a full multi-page query run.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"platform"})
)
