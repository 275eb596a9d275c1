package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/market-search-scraper/internal/models"
)

const amazonResultPage = `
<html><body>
<div data-component-type="s-search-results">
  <div data-component-type="s-search-result" data-asin="B0ABCD1234">
    <h2><a href="/Nikon-Z5-Camera/dp/B0ABCD1234"><span>Nikon Z5 Mirrorless Camera Body</span></a></h2>
    <span class="a-price">
      <span class="a-offscreen">$1,299.95</span>
      <span class="a-price-symbol">$</span>
      <span class="a-price-whole">1,299</span>
      <span class="a-price-fraction">95</span>
    </span>
    <span class="a-icon-alt">4.5 out of 5 stars</span>
    <span class="a-size-base" dir="auto">(1,234)</span>
  </div>
  <div data-component-type="s-search-result" data-asin="">
    <h2><a><span>Sponsored placeholder without an identifier</span></a></h2>
  </div>
  <div data-component-type="s-search-result" data-asin="B0EFGH5678">
    <h2><a href="/dp/B0EFGH5678"><span>Nikon FTZ II Mount Adapter</span></a></h2>
  </div>
</div>
</body></html>`

func TestAmazonExtract(t *testing.T) {
	parser := NewAmazonParser("https://www.amazon.com")

	records := parser.Extract(amazonResultPage)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "B0ABCD1234", first.ID)
	assert.Equal(t, "Amazon", first.Source)
	assert.Equal(t, "Nikon Z5 Mirrorless Camera Body", first.Title)
	assert.Equal(t, "https://www.amazon.com/Nikon-Z5-Camera/dp/B0ABCD1234", first.URL)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 1299.95, *first.Price, 0.001)
	assert.Equal(t, "$", first.Currency)
	require.NotNil(t, first.Rating)
	assert.InDelta(t, 4.5, *first.Rating, 0.001)
	require.NotNil(t, first.ReviewCount)
	assert.Equal(t, 1234, *first.ReviewCount)

	second := records[1]
	assert.Equal(t, "B0EFGH5678", second.ID)
	assert.Nil(t, second.Price)
	assert.Nil(t, second.Rating)
	assert.Nil(t, second.ReviewCount)
}

func TestAmazonExtractSynthesizesURLFromID(t *testing.T) {
	parser := NewAmazonParser("https://www.amazon.com")

	page := `<div data-component-type="s-search-result" data-asin="B0XYZ">
		<h2><span>Listing without any link</span></h2></div>`

	records := parser.Extract(page)
	require.Len(t, records, 1)
	assert.Equal(t, "https://www.amazon.com/dp/B0XYZ", records[0].URL)
}

func TestAmazonClassify(t *testing.T) {
	parser := NewAmazonParser("https://www.amazon.com")

	tests := []struct {
		name    string
		content string
		want    models.PageClassification
	}{
		{
			"captcha challenge",
			`<html><body><form action="/errors/validateCaptcha"><input/></form></body></html>`,
			models.PageBlocked,
		},
		{
			"no results",
			`<html><body><h1>No results for qwxzyqq</h1></body></html>`,
			models.PageEmptyResults,
		},
		{
			"result grid",
			amazonResultPage,
			models.PageValid,
		},
		{
			"interstitial",
			`<html><body><p>Something went wrong on our end.</p></body></html>`,
			models.PageUnrecognized,
		},
		{
			"captcha wins over markers",
			`<html><body><form action="/errors/validateCaptcha"></form><div class="s-main-slot"></div></body></html>`,
			models.PageBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.Classify(tt.content))
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"4.5 out of 5 stars", 4.5},
		{"5 out of 5 stars", 5},
		{"4.7", 4.7},
	}

	for _, tt := range tests {
		rating := parseRating(tt.text)
		require.NotNil(t, rating, tt.text)
		assert.InDelta(t, tt.want, *rating, 0.001)
	}

	assert.Nil(t, parseRating("no digits here"))
}

func TestParseReviewCount(t *testing.T) {
	count := parseReviewCount("(12,345)")
	require.NotNil(t, count)
	assert.Equal(t, 12345, *count)

	assert.Nil(t, parseReviewCount("none"))
}
