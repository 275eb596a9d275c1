package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maltedev/market-search-scraper/internal/browser"
	"github.com/maltedev/market-search-scraper/internal/cache"
	"github.com/maltedev/market-search-scraper/internal/models"
	"github.com/maltedev/market-search-scraper/internal/retry"
)

// BrowserStrategy renders the page with a full browser engine and waits for
// one of several known result-container selectors to appear. It is the most
// expensive strategy and is placed last in every funnel.
type BrowserStrategy struct {
	name            string
	platform        models.Platform
	buildURL        func(term string, page int) string
	waitSelectors   []string
	selectorTimeout time.Duration
	launch          func() (*browser.Browser, error)
	cache           *cache.Service
	policy          retry.Policy
	logger          *slog.Logger

	mu        sync.Mutex
	instance  *browser.Browser
	launchErr error
}

func NewBrowserStrategy(name string, platform models.Platform, buildURL func(term string, page int) string, waitSelectors []string, selectorTimeout time.Duration, launch func() (*browser.Browser, error), cacheSvc *cache.Service, policy retry.Policy) *BrowserStrategy {
	return &BrowserStrategy{
		name:            name,
		platform:        platform,
		buildURL:        buildURL,
		waitSelectors:   waitSelectors,
		selectorTimeout: selectorTimeout,
		launch:          launch,
		cache:           cacheSvc,
		policy:          policy,
		logger:          slog.Default().With("component", "fetch", "strategy", name),
	}
}

func (s *BrowserStrategy) Name() string { return s.name }

func (s *BrowserStrategy) Resolve(q models.Query, page int) (models.FetchRequest, error) {
	return models.FetchRequest{
		URL:      s.buildURL(q.Term, page),
		Profile:  models.ProfileDesktop,
		Platform: s.platform,
	}, nil
}

// engine launches the browser on first use. A launch failure is remembered
// and reported as ErrUnavailable so the runner can halt pagination instead
// of relaunching on every page.
func (s *BrowserStrategy) engine() (*browser.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.instance != nil {
		return s.instance, nil
	}
	if s.launchErr != nil {
		return nil, s.launchErr
	}

	b, err := s.launch()
	if err != nil {
		s.launchErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return nil, s.launchErr
	}

	s.instance = b
	return b, nil
}

func (s *BrowserStrategy) Execute(ctx context.Context, req models.FetchRequest) (string, error) {
	if body, ok := s.cache.Get(ctx, req.URL); ok {
		return body, nil
	}

	b, err := s.engine()
	if err != nil {
		return "", err
	}

	// Navigation and selector-wait timeouts are all transient from the
	// funnel's point of view, so everything short of a dead fetch layer
	// is retried.
	retryable := func(err error) bool { return !errors.Is(err, ErrUnavailable) }
	body, err := retry.Do(ctx, s.policy, retryable, func(ctx context.Context) (string, error) {
		return s.render(b, req.URL)
	})
	if err != nil {
		s.logger.Error("browser fetch failed after retries", "url", req.URL, "error", err)
		return "", err
	}

	s.cache.Set(ctx, req.URL, body)
	return body, nil
}

func (s *BrowserStrategy) render(b *browser.Browser, url string) (string, error) {
	page, err := b.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	s.logger.Info("browser navigating", "url", url)

	if err := b.Navigate(page, url); err != nil {
		return "", err
	}

	b.Humanize(page)

	if matched := b.WaitForAnySelector(page, s.waitSelectors, s.selectorTimeout); matched == "" {
		return "", fmt.Errorf("no result container selector appeared on %s", url)
	}

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read rendered document: %w", err)
	}

	return content, nil
}

// Close shuts down the lazily launched browser, if any.
func (s *BrowserStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.instance == nil {
		return nil
	}

	err := s.instance.Close()
	s.instance = nil
	return err
}
