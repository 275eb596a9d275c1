package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/market-search-scraper/internal/models"
)

// Parser turns one raw page body into a classification and a set of raw
// listing records. Implementations exist per platform and per content shape
// (HTML or structured API JSON).
type Parser interface {
	Classify(content string) models.PageClassification
	Extract(content string) []models.RawRecord
}

var (
	decimalPattern     = regexp.MustCompile(`\d+\.?\d*`)
	priceTokenPattern  = regexp.MustCompile(`[\d,]+\.?\d*`)
	ratingOutOfPattern = regexp.MustCompile(`(\d+\.?\d*)\s*out of`)
	reviewCountPattern = regexp.MustCompile(`[\d,]+`)
)

// firstText returns the first non-empty trimmed text produced by an ordered
// selector list. An empty result means no rule matched; that is not an error.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		text := strings.TrimSpace(s.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// firstAttr returns the first non-empty attribute value produced by an
// ordered selector list.
func firstAttr(s *goquery.Selection, selectors []string, attr string) string {
	for _, selector := range selectors {
		if value, exists := s.Find(selector).First().Attr(attr); exists && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// parsePriceParts joins a split whole/fraction price representation, e.g.
// whole "1,234" and fraction "99" become 1234.99.
func parsePriceParts(whole, fraction string) *float64 {
	whole = strings.ReplaceAll(strings.TrimSpace(whole), ",", "")
	whole = strings.TrimSuffix(whole, ".")
	fraction = strings.TrimSpace(fraction)
	if whole == "" || fraction == "" {
		return nil
	}

	value, err := strconv.ParseFloat(whole+"."+fraction, 64)
	if err != nil {
		return nil
	}
	return &value
}

// parsePriceToken extracts the first decimal-number substring from a single
// price token after stripping comma group separators.
func parsePriceToken(text string) *float64 {
	text = strings.ReplaceAll(text, ",", "")
	match := priceTokenPattern.FindString(text)
	if match == "" {
		return nil
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &value
}

// parseGroupedPrice handles locales where "." groups thousands: more than
// one dot, or a single dot followed by at most two digits, marks the dots as
// group separators, so "1.500.000" parses as 1500000.
func parseGroupedPrice(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.Count(text, ".") > 1 {
		text = strings.ReplaceAll(text, ".", "")
	} else if idx := strings.LastIndex(text, "."); idx >= 0 && len(text)-idx-1 <= 2 {
		text = strings.ReplaceAll(text, ".", "")
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &value
}

// parseRating prefers the decimal preceding an "out of N" phrase and falls
// back to the first decimal number found.
func parseRating(text string) *float64 {
	if match := ratingOutOfPattern.FindStringSubmatch(text); len(match) > 1 {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			return &value
		}
	}

	if match := decimalPattern.FindString(text); match != "" {
		if value, err := strconv.ParseFloat(match, 64); err == nil {
			return &value
		}
	}

	return nil
}

// parseReviewCount strips parenthetical wrappers and grouping punctuation
// and parses the remainder as an integer.
func parseReviewCount(text string) *int {
	text = strings.NewReplacer("(", "", ")", "").Replace(text)
	match := reviewCountPattern.FindString(text)
	if match == "" {
		return nil
	}

	value, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return nil
	}
	return &value
}

// logSnippet records a field-level extraction failure with enough markup
// context to diagnose a selector drift offline.
func logSnippet(logger *slog.Logger, field string, s *goquery.Selection) {
	html, err := goquery.OuterHtml(s)
	if err != nil {
		html = ""
	}
	snippet := strings.Join(strings.Fields(html), " ")
	if len(snippet) > 500 {
		snippet = snippet[:500]
	}
	logger.Warn("field extraction failed", "field", field, "snippet", snippet)
}
