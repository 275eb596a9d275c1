package scraper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/maltedev/market-search-scraper/internal/cache"
	"github.com/maltedev/market-search-scraper/internal/config"
	"github.com/maltedev/market-search-scraper/internal/debugsink"
	"github.com/maltedev/market-search-scraper/internal/models"
	"github.com/maltedev/market-search-scraper/internal/ratelimit"
)

// Service owns the shared acquisition stack and hands out one runner per
// platform. Funnels are built lazily and reused, so the browser engine
// launches at most once per process.
type Service struct {
	cfg      *config.Config
	cacheSvc *cache.Service
	client   *resty.Client
	sink     *debugsink.Sink
	logger   *slog.Logger

	mu      sync.Mutex
	runners map[models.Platform]*Runner
	funnels []*Funnel
}

func NewService(cfg *config.Config, cacheSvc *cache.Service) *Service {
	client := resty.New().
		SetTimeout(cfg.Scraper.RequestTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Service{
		cfg:      cfg,
		cacheSvc: cacheSvc,
		client:   client,
		sink:     debugsink.New(cfg.Debug.Dir, cfg.Debug.Enabled),
		logger:   slog.Default().With("component", "scraper"),
		runners:  make(map[models.Platform]*Runner),
	}
}

// Search runs one query end to end and returns its deduplicated records.
// It satisfies the SearchFunc shape the HTTP layer expects.
func (s *Service) Search(ctx context.Context, q models.Query) ([]models.Record, error) {
	runner, err := s.runner(q.Platform)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, q)
}

func (s *Service) runner(platform models.Platform) (*Runner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runner, ok := s.runners[platform]; ok {
		return runner, nil
	}

	funnel, err := NewPlatformFunnel(platform, s.cfg, s.cacheSvc, s.client, s.sink)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewSimpleRateLimiter(s.cfg.Scraper.RateLimitMin, s.cfg.Scraper.RateLimitMax)
	runner := NewRunner(funnel, limiter)

	s.funnels = append(s.funnels, funnel)
	s.runners[platform] = runner
	return runner, nil
}

// Close shuts down every funnel this service built.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, funnel := range s.funnels {
		funnel.Close()
	}
	s.funnels = nil
	s.runners = make(map[models.Platform]*Runner)
}

// NewCache builds the cache service from configuration: redis-backed when an
// address is configured, file-backed otherwise.
func NewCache(cfg *config.Config) (*cache.Service, func(), error) {
	if cfg.Cache.RedisAddr != "" {
		store, err := cache.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		return cache.New(store, cfg.Cache.TTL, cfg.Cache.MemEntries), func() { store.Close() }, nil
	}

	store, err := cache.NewFileStore(cfg.Cache.Dir)
	if err != nil {
		return nil, nil, err
	}
	return cache.New(store, cfg.Cache.TTL, cfg.Cache.MemEntries), func() {}, nil
}
