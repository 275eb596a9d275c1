package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maltedev/market-search-scraper/internal/models"
)

// ResultStore persists scraped search results. Records are keyed by
// (source, listing id); re-scraping the same listing refreshes the row.
type ResultStore struct {
	db     *DB
	logger *slog.Logger
}

func NewResultStore(db *DB) *ResultStore {
	return &ResultStore{
		db:     db,
		logger: slog.Default().With("component", "result_store"),
	}
}

const resultsSchema = `
CREATE TABLE IF NOT EXISTS search_results (
	source        TEXT NOT NULL,
	listing_id    TEXT NOT NULL,
	search_term   TEXT NOT NULL,
	title         TEXT NOT NULL,
	url           TEXT,
	price         DOUBLE PRECISION,
	currency      TEXT,
	rating        DOUBLE PRECISION,
	review_count  INTEGER,
	scraped_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, listing_id)
);
CREATE INDEX IF NOT EXISTS idx_search_results_term ON search_results (search_term);
`

func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, resultsSchema); err != nil {
		return fmt.Errorf("failed to create results schema: %w", err)
	}
	return nil
}

const upsertResult = `
INSERT INTO search_results
	(source, listing_id, search_term, title, url, price, currency, rating, review_count, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (source, listing_id) DO UPDATE SET
	search_term  = EXCLUDED.search_term,
	title        = EXCLUDED.title,
	url          = EXCLUDED.url,
	price        = EXCLUDED.price,
	currency     = EXCLUDED.currency,
	rating       = EXCLUDED.rating,
	review_count = EXCLUDED.review_count,
	scraped_at   = EXCLUDED.scraped_at
`

// SaveRecords writes one query's records in a single transaction.
func (s *ResultStore) SaveRecords(ctx context.Context, term string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	scrapedAt := time.Now().UTC()

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, record := range records {
			_, err := tx.Exec(ctx, upsertResult,
				record.Source, record.ID, term, record.Title, nullableString(record.URL),
				record.Price, nullableString(record.Currency), record.Rating,
				record.ReviewCount, scrapedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert record %s/%s: %w", record.Source, record.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("saved search results", "term", term, "records", len(records))
	return nil
}

// RecentByTerm returns the latest stored records for a search term.
func (s *ResultStore) RecentByTerm(ctx context.Context, term string, limit int) ([]models.Record, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT source, listing_id, title, COALESCE(url, ''), price, COALESCE(currency, ''), rating, review_count
		FROM search_results
		WHERE search_term = $1
		ORDER BY scraped_at DESC
		LIMIT $2`, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var record models.Record
		if err := rows.Scan(&record.Source, &record.ID, &record.Title, &record.URL,
			&record.Price, &record.Currency, &record.Rating, &record.ReviewCount); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
