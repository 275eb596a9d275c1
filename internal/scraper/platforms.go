package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/maltedev/market-search-scraper/internal/browser"
	"github.com/maltedev/market-search-scraper/internal/cache"
	"github.com/maltedev/market-search-scraper/internal/config"
	"github.com/maltedev/market-search-scraper/internal/debugsink"
	"github.com/maltedev/market-search-scraper/internal/fetch"
	"github.com/maltedev/market-search-scraper/internal/models"
	"github.com/maltedev/market-search-scraper/internal/parser"
	"github.com/maltedev/market-search-scraper/internal/retry"
)

const (
	amazonBaseURL        = "https://www.amazon.com"
	mercadoLibreListURL  = "https://listado.mercadolibre.com.co"
	mercadoLibreAPIURL   = "https://api.mercadolibre.com/sites/MCO/search"
	mercadoLibreAPIPages = 50
)

// Browser-rendered Amazon pages are ready once any of these appears.
var amazonWaitSelectors = []string{
	`div[data-component-type="s-search-results"]`,
	`[data-testid="search-results"]`,
	".s-main-slot",
	"#search",
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Scraper.MaxAttempts,
		BaseDelay:   cfg.Scraper.RetryBaseDelay,
		Multiplier:  cfg.Scraper.BackoffMultiplier,
		Jitter:      true,
	}
}

func browserOptions(cfg *config.Config) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.Timeout = cfg.Browser.Timeout
	opts.ViewportWidth = cfg.Browser.ViewportWidth
	opts.ViewportHeight = cfg.Browser.ViewportHeight
	opts.AcceptLanguage = cfg.Browser.AcceptLanguage
	opts.TimezoneID = cfg.Browser.TimezoneID
	opts.Locale = cfg.Browser.Locale
	return opts
}

// NewAmazonFunnel builds the Amazon acquisition funnel: lightweight desktop
// HTTP first, the simpler mobile markup second, and a full browser render as
// the expensive last resort.
func NewAmazonFunnel(cfg *config.Config, cacheSvc *cache.Service, client *resty.Client, sink *debugsink.Sink) *Funnel {
	policy := retryPolicy(cfg)
	htmlParser := parser.NewAmazonParser(amazonBaseURL)

	browserPolicy := policy
	browserPolicy.MaxAttempts = cfg.Browser.MaxAttempts

	stages := []Stage{
		{
			Fetch: fetch.NewHTTPStrategy("desktop_http", models.PlatformAmazon,
				models.ProfileDesktop, amazonDesktopURL, client, cacheSvc, policy),
			Parse: htmlParser,
		},
		{
			Fetch: fetch.NewHTTPStrategy("mobile_http", models.PlatformAmazon,
				models.ProfileMobile, amazonMobileURL, client, cacheSvc, policy),
			Parse: htmlParser,
		},
		{
			Fetch: fetch.NewBrowserStrategy("browser", models.PlatformAmazon,
				amazonDesktopURL, amazonWaitSelectors, cfg.Browser.SelectorTimeout,
				func() (*browser.Browser, error) { return browser.New(browserOptions(cfg)) },
				cacheSvc, browserPolicy),
			Parse: htmlParser,
		},
	}

	return NewFunnel(models.PlatformAmazon, stages, sink)
}

// NewMercadoLibreFunnel builds the MercadoLibre funnel: the public search
// API first, the listing site as markup fallback.
func NewMercadoLibreFunnel(cfg *config.Config, cacheSvc *cache.Service, client *resty.Client, sink *debugsink.Sink) *Funnel {
	policy := retryPolicy(cfg)

	pageSize := cfg.Scraper.APIPageSize
	if pageSize < 1 {
		pageSize = mercadoLibreAPIPages
	}

	stages := []Stage{
		{
			Fetch: fetch.NewAPIStrategy("structured_api", models.PlatformMercadoLibre,
				mercadoLibreAPIURL, pageSize, client, cacheSvc, policy),
			Parse: parser.NewMercadoLibreAPIParser(),
		},
		{
			Fetch: fetch.NewHTTPStrategy("desktop_http", models.PlatformMercadoLibre,
				models.ProfileDesktop, mercadoLibreListingURL, client, cacheSvc, policy),
			Parse: parser.NewMercadoLibreParser(),
		},
	}

	return NewFunnel(models.PlatformMercadoLibre, stages, sink)
}

// NewPlatformFunnel dispatches on the query's platform.
func NewPlatformFunnel(platform models.Platform, cfg *config.Config, cacheSvc *cache.Service, client *resty.Client, sink *debugsink.Sink) (*Funnel, error) {
	switch platform {
	case models.PlatformAmazon:
		return NewAmazonFunnel(cfg, cacheSvc, client, sink), nil
	case models.PlatformMercadoLibre:
		return NewMercadoLibreFunnel(cfg, cacheSvc, client, sink), nil
	default:
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
}

func amazonDesktopURL(term string, page int) string {
	values := url.Values{}
	values.Set("k", term)
	values.Set("page", fmt.Sprint(page))
	return amazonBaseURL + "/s?" + values.Encode()
}

func amazonMobileURL(term string, page int) string {
	values := url.Values{}
	values.Set("k", term)
	values.Set("page", fmt.Sprint(page))
	return amazonBaseURL + "/gp/aw/s?" + values.Encode()
}

// mercadoLibreListingURL builds the listing-site path. Beyond page one the
// site paginates by absolute result offset, one-based.
func mercadoLibreListingURL(term string, page int) string {
	slug := strings.ReplaceAll(strings.TrimSpace(term), " ", "-")
	base := mercadoLibreListURL + "/" + slug
	if page <= 1 {
		return base
	}
	return fmt.Sprintf("%s_Desde_%d", base, (page-1)*mercadoLibreAPIPages+1)
}
