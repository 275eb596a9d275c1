package parser

import (
	"strings"

	"github.com/maltedev/market-search-scraper/internal/models"
)

// maxTitleLength bounds stored titles; longer ones are truncated, not rejected.
const maxTitleLength = 200

// ValidateRecord normalizes raw extracted fields into a canonical record.
// A record without an id or a non-empty title is rejected outright. Numeric
// fields that fall outside their bounds are nulled, never clamped: a bogus
// value must not masquerade as a real one.
func ValidateRecord(raw models.RawRecord) (models.Record, bool) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return models.Record{}, false
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return models.Record{}, false
	}
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}

	record := models.Record{
		ID:       id,
		Source:   raw.Source,
		Title:    title,
		Currency: raw.Currency,
	}

	if url := strings.TrimSpace(raw.URL); strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		record.URL = url
	}

	if raw.Price != nil && *raw.Price >= 0 {
		record.Price = raw.Price
	}

	if raw.Rating != nil && *raw.Rating >= 0 && *raw.Rating <= 5 {
		record.Rating = raw.Rating
	}

	if raw.ReviewCount != nil && *raw.ReviewCount >= 0 {
		record.ReviewCount = raw.ReviewCount
	}

	return record, true
}
