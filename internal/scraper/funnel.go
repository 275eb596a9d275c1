package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/maltedev/market-search-scraper/internal/debugsink"
	"github.com/maltedev/market-search-scraper/internal/fetch"
	"github.com/maltedev/market-search-scraper/internal/models"
	"github.com/maltedev/market-search-scraper/internal/parser"
)

// Stage pairs one acquisition strategy with the parser that understands the
// content shape it returns.
type Stage struct {
	Fetch fetch.Strategy
	Parse parser.Parser
}

// Funnel runs the stages of one platform in strict priority order. The first
// stage that yields a valid page with at least one valid record wins; later
// stages are never consulted for that page.
type Funnel struct {
	platform models.Platform
	stages   []Stage
	sink     *debugsink.Sink
	logger   *slog.Logger
}

func NewFunnel(platform models.Platform, stages []Stage, sink *debugsink.Sink) *Funnel {
	return &Funnel{
		platform: platform,
		stages:   stages,
		sink:     sink,
		logger:   slog.Default().With("component", "funnel", "platform", string(platform)),
	}
}

// RunPage resolves and executes each stage for one result page. Fetch
// failures and any non-valid classification advance to the next stage; only
// an unavailable fetch layer aborts the whole run. All stages exhausted
// without a winner means zero records, not an error.
func (f *Funnel) RunPage(ctx context.Context, q models.Query, page int) ([]models.Record, error) {
	for _, stage := range f.stages {
		name := stage.Fetch.Name()

		req, err := stage.Fetch.Resolve(q, page)
		if err != nil {
			f.logger.Warn("strategy cannot build request", "strategy", name, "page", page, "error", err)
			strategyErrors.WithLabelValues(string(f.platform), name).Inc()
			continue
		}

		content, err := stage.Fetch.Execute(ctx, req)
		if err != nil {
			if errors.Is(err, fetch.ErrUnavailable) {
				return nil, fmt.Errorf("strategy %s: %w", name, err)
			}
			f.logger.Warn("strategy fetch failed", "strategy", name, "page", page, "error", err)
			strategyErrors.WithLabelValues(string(f.platform), name).Inc()
			continue
		}

		classification := stage.Parse.Classify(content)
		pagesProcessed.WithLabelValues(string(f.platform), name, classification.String()).Inc()

		switch classification {
		case models.PageBlocked:
			f.logger.Warn("page blocked", "strategy", name, "page", page)
			f.sink.SavePage(content, fmt.Sprintf("%s_%s_blocked", f.platform, name))
			continue
		case models.PageEmptyResults:
			// A cheap render can false-negative into a no-results page;
			// only a richer strategy agreeing makes it credible.
			f.logger.Info("page reports no results", "strategy", name, "page", page)
			f.sink.SavePage(content, fmt.Sprintf("%s_%s_empty", f.platform, name))
			continue
		case models.PageUnrecognized:
			f.logger.Warn("page layout unrecognized", "strategy", name, "page", page)
			f.sink.SavePage(content, fmt.Sprintf("%s_%s_unrecognized", f.platform, name))
			continue
		}

		records := f.validate(stage.Parse.Extract(content))
		if len(records) == 0 {
			f.logger.Warn("valid page yielded no usable records", "strategy", name, "page", page)
			f.sink.SavePage(content, fmt.Sprintf("%s_%s_norecords", f.platform, name))
			continue
		}

		f.logger.Info("page scraped", "strategy", name, "page", page, "records", len(records))
		recordsExtracted.WithLabelValues(string(f.platform)).Add(float64(len(records)))
		return records, nil
	}

	f.logger.Warn("all strategies exhausted", "page", page)
	return []models.Record{}, nil
}

func (f *Funnel) validate(raw []models.RawRecord) []models.Record {
	records := make([]models.Record, 0, len(raw))
	for _, r := range raw {
		record, ok := parser.ValidateRecord(r)
		if !ok {
			f.logger.Debug("record rejected", "id", r.ID, "title", r.Title)
			continue
		}
		records = append(records, record)
	}
	return records
}

// Close releases strategy-held resources, such as a launched browser.
func (f *Funnel) Close() {
	for _, stage := range f.stages {
		if closer, ok := stage.Fetch.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				f.logger.Warn("failed to close strategy", "strategy", stage.Fetch.Name(), "error", err)
			}
		}
	}
}
