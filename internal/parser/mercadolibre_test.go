package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/market-search-scraper/internal/models"
)

const mlResultPage = `
<html><body>
<ol>
  <li class="ui-search-layout__item">
    <img title="Camara Nikon Z5 Cuerpo" src="x.jpg"/>
    <a class="ui-search-link" href="https://articulo.mercadolibre.com.co/MCO-123456789-camara-nikon-z5-_JM"></a>
    <span class="andes-money-amount__currency-symbol">$</span>
    <span class="andes-money-amount__fraction">8.500.000</span>
  </li>
  <li class="ui-search-layout__item">
    <h2 class="ui-search-item__title">Lente Nikkor Z 40mm</h2>
    <a class="ui-search-link" href="https://articulo.mercadolibre.com.co/MCO-987654321-lente-nikkor-_JM"></a>
    <span class="andes-money-amount__fraction">1.200.000</span>
  </li>
  <li class="ui-search-layout__item">
    <div>listing with no recoverable title</div>
  </li>
</ol>
</body></html>`

func TestMercadoLibreExtract(t *testing.T) {
	parser := NewMercadoLibreParser()

	records := parser.Extract(mlResultPage)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "MCO123456789", first.ID)
	assert.Equal(t, "MercadoLibre", first.Source)
	assert.Equal(t, "Camara Nikon Z5 Cuerpo", first.Title)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 8500000, *first.Price, 0.001)
	assert.Equal(t, "$", first.Currency)

	second := records[1]
	assert.Equal(t, "MCO987654321", second.ID)
	assert.Equal(t, "Lente Nikkor Z 40mm", second.Title)
	require.NotNil(t, second.Price)
	assert.InDelta(t, 1200000, *second.Price, 0.001)
}

func TestMercadoLibreClassify(t *testing.T) {
	parser := NewMercadoLibreParser()

	assert.Equal(t, models.PageValid, parser.Classify(mlResultPage))
	assert.Equal(t, models.PageEmptyResults, parser.Classify(
		`<html><body><p>No hay publicaciones que coincidan con tu búsqueda.</p></body></html>`))
}

func TestParseGroupedPrice(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"1.500.000", 1500000},
		{"8.500", 8500},
		{"1234.56", 1234.56},
		{"999", 999},
	}

	for _, tt := range tests {
		price := parseGroupedPrice(tt.text)
		require.NotNil(t, price, tt.text)
		assert.InDelta(t, tt.want, *price, 0.001)
	}

	assert.Nil(t, parseGroupedPrice("gratis"))
}

func TestMercadoLibreExtractIDFallback(t *testing.T) {
	parser := NewMercadoLibreParser()

	assert.Equal(t, "MCO123", parser.extractID("https://articulo.mercadolibre.com.co/MCO-123-x-_JM"))
	assert.Equal(t, "articulo", parser.extractID("https://shop.test/articulo-generico"))
	assert.Equal(t, "", parser.extractID(""))
}

func TestMercadoLibreAPIParser(t *testing.T) {
	parser := NewMercadoLibreAPIParser()

	body := `{"results":[
		{"id":"MCO111","title":"Nikon Z5","permalink":"https://articulo.mercadolibre.com.co/MCO-111","price":8500000,"currency_id":"COP"},
		{"id":"MCO222","title":"Nikon Z6","permalink":"https://articulo.mercadolibre.com.co/MCO-222","price":null,"currency_id":"COP"}
	]}`

	assert.Equal(t, models.PageValid, parser.Classify(body))

	records := parser.Extract(body)
	require.Len(t, records, 2)
	assert.Equal(t, "MCO111", records[0].ID)
	assert.Equal(t, "Nikon Z5", records[0].Title)
	require.NotNil(t, records[0].Price)
	assert.InDelta(t, 8500000, *records[0].Price, 0.001)
	assert.Equal(t, "COP", records[0].Currency)
	assert.Nil(t, records[1].Price)
}

func TestMercadoLibreAPIParserEmptyAndInvalid(t *testing.T) {
	parser := NewMercadoLibreAPIParser()

	assert.Equal(t, models.PageValid, parser.Classify(`{"results":[]}`))
	assert.Empty(t, parser.Extract(`{"results":[]}`))

	assert.Equal(t, models.PageUnrecognized, parser.Classify(`<html>not json</html>`))
	assert.Nil(t, parser.Extract(`<html>not json</html>`))
}
