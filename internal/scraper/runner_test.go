package scraper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/market-search-scraper/internal/fetch"
	"github.com/maltedev/market-search-scraper/internal/models"
)

// pagedStrategy serves a fixed record set per page through a paired parser.
type pagedStrategy struct {
	name  string
	pages map[int][]models.RawRecord
	errs  map[int]error
	page  int
}

func (s *pagedStrategy) Name() string { return s.name }

func (s *pagedStrategy) Resolve(q models.Query, page int) (models.FetchRequest, error) {
	s.page = page
	return models.FetchRequest{URL: fmt.Sprintf("https://shop.test/p/%d", page)}, nil
}

func (s *pagedStrategy) Execute(ctx context.Context, req models.FetchRequest) (string, error) {
	if err := s.errs[s.page]; err != nil {
		return "", err
	}
	return "page", nil
}

type pagedParser struct {
	strategy *pagedStrategy
}

func (p *pagedParser) Classify(content string) models.PageClassification {
	return models.PageValid
}

func (p *pagedParser) Extract(content string) []models.RawRecord {
	return p.strategy.pages[p.strategy.page]
}

func newPagedRunner(pages map[int][]models.RawRecord, errs map[int]error) *Runner {
	strategy := &pagedStrategy{name: "paged", pages: pages, errs: errs}
	funnel := NewFunnel(models.PlatformAmazon, []Stage{
		{Fetch: strategy, Parse: &pagedParser{strategy: strategy}},
	}, disabledSink())
	return NewRunner(funnel, nil)
}

func TestRunnerWalksPagesInOrder(t *testing.T) {
	runner := newPagedRunner(map[int][]models.RawRecord{
		1: {validRaw("A1"), validRaw("A2")},
		2: {validRaw("B1")},
	}, nil)

	records, err := runner.Run(context.Background(), models.Query{Term: "laptop", MaxPages: 3})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "A1", records[0].ID)
	assert.Equal(t, "A2", records[1].ID)
	assert.Equal(t, "B1", records[2].ID)
}

func TestRunnerStopsOnEmptyFirstPage(t *testing.T) {
	runner := newPagedRunner(map[int][]models.RawRecord{}, nil)

	records, err := runner.Run(context.Background(), models.Query{Term: "qwxzyqq", MaxPages: 5})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunnerHaltsOnCriticalFailureKeepingRecords(t *testing.T) {
	runner := newPagedRunner(
		map[int][]models.RawRecord{1: {validRaw("A1")}},
		map[int]error{2: fmt.Errorf("%w: engine gone", fetch.ErrUnavailable)},
	)

	records, err := runner.Run(context.Background(), models.Query{Term: "laptop", MaxPages: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrUnavailable)
	require.Len(t, records, 1)
	assert.Equal(t, "A1", records[0].ID)
}

func TestRunnerToleratesEmptyMiddlePage(t *testing.T) {
	runner := newPagedRunner(map[int][]models.RawRecord{
		1: {validRaw("A1")},
		3: {validRaw("C1")},
	}, nil)

	records, err := runner.Run(context.Background(), models.Query{Term: "laptop", MaxPages: 3})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A1", records[0].ID)
	assert.Equal(t, "C1", records[1].ID)
}

func TestRunnerRespectsMaxPages(t *testing.T) {
	runner := newPagedRunner(map[int][]models.RawRecord{
		1: {validRaw("A1")},
		2: {validRaw("B1")},
		3: {validRaw("C1")},
	}, nil)

	records, err := runner.Run(context.Background(), models.Query{Term: "laptop", MaxPages: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestDedupeLastSeenWinsFirstSeenOrder(t *testing.T) {
	early := validRaw("A1")
	early.Title = "stale"
	late := validRaw("A1")
	late.Title = "fresh"

	records := dedupe([]models.Record{
		mustValidate(t, early),
		mustValidate(t, validRaw("B1")),
		mustValidate(t, late),
	})

	require.Len(t, records, 2)
	assert.Equal(t, "A1", records[0].ID)
	assert.Equal(t, "fresh", records[0].Title)
	assert.Equal(t, "B1", records[1].ID)
}

func mustValidate(t *testing.T, raw models.RawRecord) models.Record {
	t.Helper()
	record, ok := validateOne(raw)
	require.True(t, ok)
	return record
}

func validateOne(raw models.RawRecord) (models.Record, bool) {
	funnel := NewFunnel(models.PlatformAmazon, nil, disabledSink())
	records := funnel.validate([]models.RawRecord{raw})
	if len(records) == 0 {
		return models.Record{}, false
	}
	return records[0], true
}
