package parser

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/market-search-scraper/internal/models"
)

const amazonSource = "Amazon"

// AmazonParser extracts product listings from Amazon search result pages,
// desktop and mobile variants alike.
type AmazonParser struct {
	baseURL *url.URL
	logger  *slog.Logger
}

func NewAmazonParser(baseURL string) *AmazonParser {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = &url.URL{Scheme: "https", Host: "www.amazon.com"}
	}

	return &AmazonParser{
		baseURL: base,
		logger:  slog.Default().With("component", "parser", "platform", amazonSource),
	}
}

var amazonItemSelectors = []string{
	`div[data-component-type="s-search-result"]`,
	`div.s-result-item[data-asin]`,
}

var amazonResultMarkers = []string{
	`div[data-component-type="s-search-results"]`,
	`div[data-component-type="s-search-result"]`,
	`.s-main-slot`,
	`#search`,
}

// Classify inspects a page body before any extraction is attempted. CAPTCHA
// wins over everything else; a page matching no known marker at all is
// reported as unrecognized rather than valid.
func (p *AmazonParser) Classify(content string) models.PageClassification {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return models.PageUnrecognized
	}

	if doc.Find(`form[action="/errors/validateCaptcha"]`).Length() > 0 {
		return models.PageBlocked
	}

	if strings.Contains(doc.Find("h1, .a-row").Text(), "No results for") {
		return models.PageEmptyResults
	}

	for _, marker := range amazonResultMarkers {
		if doc.Find(marker).Length() > 0 {
			return models.PageValid
		}
	}

	return models.PageUnrecognized
}

// Extract walks every listing container on the page. Listings that lack the
// stable identifier are skipped; every other field failure just leaves the
// field absent.
func (p *AmazonParser) Extract(content string) []models.RawRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var items *goquery.Selection
	for _, selector := range amazonItemSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			items = found
			break
		}
	}
	if items == nil {
		return nil
	}

	var records []models.RawRecord
	items.Each(func(_ int, item *goquery.Selection) {
		if record, ok := p.extractListing(item); ok {
			records = append(records, record)
		}
	})

	return records
}

func (p *AmazonParser) extractListing(item *goquery.Selection) (models.RawRecord, bool) {
	asin, _ := item.Attr("data-asin")
	asin = strings.TrimSpace(asin)
	if asin == "" {
		return models.RawRecord{}, false
	}

	title := firstText(item, []string{
		"h2 a span",
		"h2 span",
		"h2 a",
		".a-link-normal span",
		`[data-cy="title-recipe-title"]`,
	})
	if title == "" {
		logSnippet(p.logger, "title", item)
		return models.RawRecord{}, false
	}

	record := models.RawRecord{
		ID:       asin,
		Source:   amazonSource,
		Title:    title,
		URL:      p.extractURL(item, asin),
		Price:    p.extractPrice(item),
		Currency: p.extractCurrency(item),
		Rating:   p.extractRating(item),
	}

	if reviewText := firstText(item, []string{
		`span.a-size-base[dir="auto"]`,
		`a[href*="#reviews"] span`,
		`[data-cy*="reviews"]`,
	}); reviewText != "" {
		record.ReviewCount = parseReviewCount(reviewText)
	}

	return record, true
}

// extractPrice prefers the split whole/fraction representation and falls
// back to the offscreen single-token price.
func (p *AmazonParser) extractPrice(item *goquery.Selection) *float64 {
	whole := firstText(item, []string{"span.a-price-whole"})
	fraction := firstText(item, []string{"span.a-price-fraction"})
	if whole != "" && fraction != "" {
		if price := parsePriceParts(whole, fraction); price != nil {
			return price
		}
	}

	for _, selector := range []string{"span.a-price .a-offscreen", ".a-price-range .a-offscreen"} {
		if text := firstText(item, []string{selector}); text != "" {
			if price := parsePriceToken(text); price != nil {
				return price
			}
		}
	}

	logSnippet(p.logger, "price", item)
	return nil
}

func (p *AmazonParser) extractCurrency(item *goquery.Selection) string {
	if symbol := firstText(item, []string{"span.a-price-symbol"}); symbol != "" {
		return symbol
	}
	return "$"
}

func (p *AmazonParser) extractRating(item *goquery.Selection) *float64 {
	if text := firstText(item, []string{"span.a-icon-alt"}); text != "" {
		if rating := parseRating(text); rating != nil {
			return rating
		}
	}

	if label := firstAttr(item, []string{`[aria-label*="out of"]`}, "aria-label"); label != "" {
		if rating := parseRating(label); rating != nil {
			return rating
		}
	}

	if text := firstText(item, []string{`[data-cy*="rating"]`}); text != "" {
		return parseRating(text)
	}

	return nil
}

// extractURL resolves the first listing href against the site base, or
// synthesizes the canonical detail-page URL from the identifier.
func (p *AmazonParser) extractURL(item *goquery.Selection, asin string) string {
	href := firstAttr(item, []string{
		"a.a-link-normal.s-no-outline",
		"a.a-link-normal",
		"h2 a",
		`a[href*="/dp/"]`,
	}, "href")

	if href != "" {
		if ref, err := url.Parse(href); err == nil {
			return p.baseURL.ResolveReference(ref).String()
		}
	}

	return p.baseURL.String() + "/dp/" + asin
}
