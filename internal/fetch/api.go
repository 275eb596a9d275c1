package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/maltedev/market-search-scraper/internal/cache"
	"github.com/maltedev/market-search-scraper/internal/models"
	"github.com/maltedev/market-search-scraper/internal/retry"
)

// APIStrategy calls a platform's public search API directly, bypassing HTML
// entirely. Only valid for platforms that expose one (MercadoLibre).
type APIStrategy struct {
	name     string
	platform models.Platform
	endpoint string
	pageSize int
	client   *resty.Client
	cache    *cache.Service
	policy   retry.Policy
	logger   *slog.Logger
}

func NewAPIStrategy(name string, platform models.Platform, endpoint string, pageSize int, client *resty.Client, cacheSvc *cache.Service, policy retry.Policy) *APIStrategy {
	return &APIStrategy{
		name:     name,
		platform: platform,
		endpoint: endpoint,
		pageSize: pageSize,
		client:   client,
		cache:    cacheSvc,
		policy:   policy,
		logger:   slog.Default().With("component", "fetch", "strategy", name),
	}
}

func (s *APIStrategy) Name() string { return s.name }

func (s *APIStrategy) Resolve(q models.Query, page int) (models.FetchRequest, error) {
	offset := (page - 1) * s.pageSize

	params := url.Values{}
	params.Set("q", q.Term)
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("limit", fmt.Sprintf("%d", s.pageSize))

	return models.FetchRequest{
		URL:      s.endpoint + "?" + params.Encode(),
		Profile:  models.ProfileDesktop,
		Platform: s.platform,
	}, nil
}

func (s *APIStrategy) Execute(ctx context.Context, req models.FetchRequest) (string, error) {
	if body, ok := s.cache.Get(ctx, req.URL); ok {
		return body, nil
	}

	body, err := retry.Do(ctx, s.policy, Retryable, func(ctx context.Context) (string, error) {
		resp, err := s.client.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			Get(req.URL)
		if err != nil {
			return "", fmt.Errorf("request failed: %w", err)
		}

		s.logger.Info("api request", "url", req.URL, "status", resp.StatusCode())

		if resp.StatusCode() != http.StatusOK {
			return "", &StatusError{Code: resp.StatusCode(), URL: req.URL}
		}

		return resp.String(), nil
	})
	if err != nil {
		s.logger.Error("api fetch failed after retries", "url", req.URL, "error", err)
		return "", err
	}

	s.cache.Set(ctx, req.URL, body)
	return body, nil
}
