package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/market-search-scraper/internal/models"
)

func TestValidateRecordRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawRecord
	}{
		{"missing id", models.RawRecord{Title: "Nikon Z5"}},
		{"blank id", models.RawRecord{ID: "   ", Title: "Nikon Z5"}},
		{"missing title", models.RawRecord{ID: "B0ABCD1234"}},
		{"blank title", models.RawRecord{ID: "B0ABCD1234", Title: " \t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ValidateRecord(tt.raw)
			assert.False(t, ok)
		})
	}
}

func TestValidateRecordNullsOutOfBoundsNumerics(t *testing.T) {
	record, ok := ValidateRecord(models.RawRecord{
		ID:          "B0ABCD1234",
		Title:       "Nikon Z5",
		Price:       models.Float64(-5),
		Rating:      models.Float64(9),
		ReviewCount: models.Int(-1),
	})
	require.True(t, ok)

	assert.Nil(t, record.Price)
	assert.Nil(t, record.Rating)
	assert.Nil(t, record.ReviewCount)
}

func TestValidateRecordKeepsInBoundsNumerics(t *testing.T) {
	record, ok := ValidateRecord(models.RawRecord{
		ID:          "B0ABCD1234",
		Title:       "Nikon Z5",
		Price:       models.Float64(0),
		Rating:      models.Float64(5),
		ReviewCount: models.Int(0),
	})
	require.True(t, ok)

	require.NotNil(t, record.Price)
	assert.Equal(t, 0.0, *record.Price)
	require.NotNil(t, record.Rating)
	assert.Equal(t, 5.0, *record.Rating)
	require.NotNil(t, record.ReviewCount)
	assert.Equal(t, 0, *record.ReviewCount)
}

func TestValidateRecordTruncatesLongTitle(t *testing.T) {
	record, ok := ValidateRecord(models.RawRecord{
		ID:    "B0ABCD1234",
		Title: strings.Repeat("x", 300),
	})
	require.True(t, ok)
	assert.Len(t, record.Title, maxTitleLength)
}

func TestValidateRecordDropsMalformedURL(t *testing.T) {
	record, ok := ValidateRecord(models.RawRecord{
		ID:    "B0ABCD1234",
		Title: "Nikon Z5",
		URL:   "javascript:alert(1)",
	})
	require.True(t, ok)
	assert.Empty(t, record.URL)

	record, ok = ValidateRecord(models.RawRecord{
		ID:    "B0ABCD1234",
		Title: "Nikon Z5",
		URL:   " https://www.amazon.com/dp/B0ABCD1234 ",
	})
	require.True(t, ok)
	assert.Equal(t, "https://www.amazon.com/dp/B0ABCD1234", record.URL)
}
