package parser

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/market-search-scraper/internal/models"
)

const mercadoLibreSource = "MercadoLibre"

var mlListingIDPattern = regexp.MustCompile(`(MLA|MCO)[0-9]+`)

// MercadoLibreParser extracts product listings from MercadoLibre search
// result pages.
type MercadoLibreParser struct {
	logger *slog.Logger
}

func NewMercadoLibreParser() *MercadoLibreParser {
	return &MercadoLibreParser{
		logger: slog.Default().With("component", "parser", "platform", mercadoLibreSource),
	}
}

var mlItemSelectors = []string{
	"li.ui-search-layout__item",
	"div.ui-search-result__wrapper",
	".poly-card",
	".ui-search-results__item",
}

func (p *MercadoLibreParser) Classify(content string) models.PageClassification {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return models.PageUnrecognized
	}

	if strings.Contains(doc.Find("body").Text(), "No hay publicaciones que coincidan con tu búsqueda") {
		return models.PageEmptyResults
	}

	return models.PageValid
}

func (p *MercadoLibreParser) Extract(content string) []models.RawRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var items *goquery.Selection
	for _, selector := range mlItemSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			items = found
			break
		}
	}
	if items == nil {
		p.logger.Warn("no listing containers matched any selector")
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

func (p *MercadoLibreParser) extractListing(item *goquery.Selection) (models.RawRecord, bool) {
	title := p.extractTitle(item)
	if title == "" {
		logSnippet(p.logger, "title", item)
		return models.RawRecord{}, false
	}

	listingURL := firstAttr(item, []string{
		"a.ui-search-link",
		`a[href*="MLA"]`,
		`a[href*="MCO"]`,
		"h2 a",
		"a.poly-component__title",
	}, "href")

	record := models.RawRecord{
		ID:       p.extractID(listingURL),
		Source:   mercadoLibreSource,
		Title:    title,
		URL:      listingURL,
		Price:    p.extractPrice(item),
		Currency: p.extractCurrency(item),
	}

	return record, true
}

// extractTitle tries the image title attribute first; the visible title
// markup has churned across site redesigns, the image alt data less so.
func (p *MercadoLibreParser) extractTitle(item *goquery.Selection) string {
	if title := firstAttr(item, []string{"img[title]"}, "title"); title != "" {
		return title
	}

	return firstText(item, []string{
		"h2.ui-search-item__title",
		".ui-search-item__title",
		"h2 a",
		`[data-testid*="title"]`,
	})
}

func (p *MercadoLibreParser) extractPrice(item *goquery.Selection) *float64 {
	selectors := []string{
		"span.andes-money-amount__fraction",
		".andes-money-amount__fraction",
		".price-tag-fraction",
		`[data-testid*="price"]`,
		".poly-price__current .poly-price__fraction",
	}

	for _, selector := range selectors {
		if text := firstText(item, []string{selector}); text != "" {
			if price := parseGroupedPrice(text); price != nil {
				return price
			}
		}
	}

	logSnippet(p.logger, "price", item)
	return nil
}

func (p *MercadoLibreParser) extractCurrency(item *goquery.Selection) string {
	symbol := firstText(item, []string{
		"span.andes-money-amount__currency-symbol",
		".andes-money-amount__currency-symbol",
		".price-tag-symbol",
		".poly-price__symbol",
	})
	if symbol != "" {
		return symbol
	}
	return "$"
}

// extractID pulls the platform listing token out of the detail URL, falling
// back to the first path segment that looks like a listing slug.
func (p *MercadoLibreParser) extractID(listingURL string) string {
	if listingURL == "" {
		return ""
	}

	if id := mlListingIDPattern.FindString(listingURL); id != "" {
		return id
	}

	for _, part := range strings.Split(listingURL, "/") {
		if part == "" || strings.HasPrefix(part, "http") || len(part) <= 5 {
			continue
		}
		if idx := strings.Index(part, "-"); idx > 0 {
			return part[:idx]
		}
		return part
	}

	return ""
}

// MercadoLibreAPIParser handles the structured search API response instead
// of markup.
type MercadoLibreAPIParser struct {
	logger *slog.Logger
}

func NewMercadoLibreAPIParser() *MercadoLibreAPIParser {
	return &MercadoLibreAPIParser{
		logger: slog.Default().With("component", "parser", "platform", mercadoLibreSource+"-api"),
	}
}

type mlAPIResponse struct {
	Results []mlAPIResult `json:"results"`
}

type mlAPIResult struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Permalink  string   `json:"permalink"`
	Price      *float64 `json:"price"`
	CurrencyID string   `json:"currency_id"`
}

// Classify treats any well-formed JSON object as valid; an empty result
// list means zero records, not an invalid page.
func (p *MercadoLibreAPIParser) Classify(content string) models.PageClassification {
	var resp mlAPIResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return models.PageUnrecognized
	}
	return models.PageValid
}

func (p *MercadoLibreAPIParser) Extract(content string) []models.RawRecord {
	var resp mlAPIResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		p.logger.Warn("failed to decode api response", "error", err)
		return nil
	}

	var records []models.RawRecord
	for _, item := range resp.Results {
		records = append(records, models.RawRecord{
			ID:       item.ID,
			Source:   mercadoLibreSource,
			Title:    item.Title,
			URL:      item.Permalink,
			Price:    item.Price,
			Currency: item.CurrencyID,
		})
	}

	return records
}
