package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmazonURLBuilders(t *testing.T) {
	assert.Equal(t, "https://www.amazon.com/s?k=nikon+z5&page=1", amazonDesktopURL("nikon z5", 1))
	assert.Equal(t, "https://www.amazon.com/s?k=nikon+z5&page=3", amazonDesktopURL("nikon z5", 3))
	assert.Equal(t, "https://www.amazon.com/gp/aw/s?k=nikon+z5&page=1", amazonMobileURL("nikon z5", 1))
	assert.Equal(t, "https://www.amazon.com/gp/aw/s?k=nikon+z5&page=2", amazonMobileURL("nikon z5", 2))
}

func TestMercadoLibreListingURL(t *testing.T) {
	assert.Equal(t, "https://listado.mercadolibre.com.co/nikon-z5", mercadoLibreListingURL("nikon z5", 1))
	assert.Equal(t, "https://listado.mercadolibre.com.co/nikon-z5_Desde_51", mercadoLibreListingURL("nikon z5", 2))
	assert.Equal(t, "https://listado.mercadolibre.com.co/nikon-z5_Desde_101", mercadoLibreListingURL("nikon z5", 3))
}
