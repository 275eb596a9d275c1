package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/maltedev/market-search-scraper/internal/cache"
	"github.com/maltedev/market-search-scraper/internal/models"
	"github.com/maltedev/market-search-scraper/internal/retry"
)

// HTTPStrategy issues a single search-page request with realistic rotating
// headers and no JavaScript execution. The same type serves the desktop and
// mobile site variants; only the URL builder and device profile differ.
type HTTPStrategy struct {
	name     string
	platform models.Platform
	profile  models.DeviceProfile
	buildURL func(term string, page int) string
	client   *resty.Client
	cache    *cache.Service
	policy   retry.Policy
	logger   *slog.Logger
}

func NewHTTPStrategy(name string, platform models.Platform, profile models.DeviceProfile, buildURL func(term string, page int) string, client *resty.Client, cacheSvc *cache.Service, policy retry.Policy) *HTTPStrategy {
	return &HTTPStrategy{
		name:     name,
		platform: platform,
		profile:  profile,
		buildURL: buildURL,
		client:   client,
		cache:    cacheSvc,
		policy:   policy,
		logger:   slog.Default().With("component", "fetch", "strategy", name),
	}
}

func (s *HTTPStrategy) Name() string { return s.name }

func (s *HTTPStrategy) Resolve(q models.Query, page int) (models.FetchRequest, error) {
	return models.FetchRequest{
		URL:      s.buildURL(q.Term, page),
		Profile:  s.profile,
		Platform: s.platform,
	}, nil
}

func (s *HTTPStrategy) Execute(ctx context.Context, req models.FetchRequest) (string, error) {
	if body, ok := s.cache.Get(ctx, req.URL); ok {
		return body, nil
	}

	body, err := retry.Do(ctx, s.policy, Retryable, func(ctx context.Context) (string, error) {
		return s.fetchOnce(ctx, req)
	})
	if err != nil {
		s.logger.Error("fetch failed after retries", "url", req.URL, "error", err)
		return "", err
	}

	s.cache.Set(ctx, req.URL, body)
	return body, nil
}

func (s *HTTPStrategy) fetchOnce(ctx context.Context, req models.FetchRequest) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeaders(RealisticHeaders(req.Profile)).
		Get(req.URL)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	s.logger.Info("http request",
		"method", http.MethodGet,
		"url", req.URL,
		"status", resp.StatusCode())

	if resp.StatusCode() != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode(), URL: req.URL}
	}

	return resp.String(), nil
}
