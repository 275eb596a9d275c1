package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/maltedev/market-search-scraper/internal/models"
	"github.com/maltedev/market-search-scraper/internal/ratelimit"
)

// Runner drives a funnel across result pages. Pages are fetched strictly in
// order with a rate-limited gap between them. An empty first page means the
// query has no results at all; an empty later page is tolerated and
// pagination continues up to the configured limit.
type Runner struct {
	funnel  *Funnel
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
}

func NewRunner(funnel *Funnel, limiter ratelimit.RateLimiter) *Runner {
	return &Runner{
		funnel:  funnel,
		limiter: limiter,
		logger:  slog.Default().With("component", "runner", "platform", string(funnel.platform)),
	}
}

// Run executes the query page by page and returns the deduplicated records.
// A fetch-layer failure halts pagination but still returns everything
// accumulated so far alongside the error.
func (r *Runner) Run(ctx context.Context, q models.Query) ([]models.Record, error) {
	start := time.Now()
	defer func() {
		queryDuration.WithLabelValues(string(r.funnel.platform)).Observe(time.Since(start).Seconds())
	}()

	maxPages := q.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	var records []models.Record
	for page := 1; page <= maxPages; page++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return dedupe(records), err
			}
		}

		pageRecords, err := r.funnel.RunPage(ctx, q, page)
		if err != nil {
			r.logger.Error("pagination halted", "page", page, "error", err)
			return dedupe(records), err
		}

		if len(pageRecords) == 0 {
			if page == 1 {
				r.logger.Info("first page empty, done", "term", q.Term)
				break
			}
			r.logger.Warn("page yielded no records, continuing", "term", q.Term, "page", page)
			continue
		}

		records = append(records, pageRecords...)
	}

	deduped := dedupe(records)
	r.logger.Info("query complete", "term", q.Term, "records", len(deduped),
		"duplicates", len(records)-len(deduped), "elapsed", time.Since(start))
	return deduped, nil
}

// dedupe collapses records sharing an id. The record keeps its first-seen
// position but carries the last-seen data, so a later page refreshing a
// listing wins over the stale copy.
func dedupe(records []models.Record) []models.Record {
	seen := make(map[string]int, len(records))
	out := make([]models.Record, 0, len(records))

	for _, record := range records {
		if idx, ok := seen[record.ID]; ok {
			out[idx] = record
			continue
		}
		seen[record.ID] = len(out)
		out = append(out, record)
	}

	return out
}
