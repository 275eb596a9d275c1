package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/maltedev/market-search-scraper/internal/config"
	"github.com/maltedev/market-search-scraper/internal/database"
	"github.com/maltedev/market-search-scraper/internal/models"
	"github.com/maltedev/market-search-scraper/internal/scraper"
)

type platformResult struct {
	Platform models.Platform `json:"platform"`
	Count    int             `json:"count"`
	Records  []models.Record `json:"records"`
	Error    string          `json:"error,omitempty"`
}

func main() {
	query := flag.String("query", "", "search term (required)")
	pages := flag.Int("pages", 1, "maximum result pages per platform")
	platformFlag := flag.String("platform", "all", "amazon, mercadolibre or all")
	saveDB := flag.Bool("save-db", false, "persist results to postgres")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: scraper -query <term> [-pages N] [-platform amazon|mercadolibre|all] [-save-db]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	logger := slog.Default()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	platforms, err := resolvePlatforms(*platformFlag)
	if err != nil {
		logger.Error("invalid platform", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheSvc, closeCache, err := scraper.NewCache(cfg)
	if err != nil {
		logger.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	service := scraper.NewService(cfg, cacheSvc)
	defer service.Close()

	var store *database.ResultStore
	if *saveDB {
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store = database.NewResultStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare schema", "error", err)
			os.Exit(1)
		}
	}

	// Platforms are independent; each one still paginates sequentially.
	results := make([]platformResult, len(platforms))
	var wg sync.WaitGroup
	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform models.Platform) {
			defer wg.Done()

			records, err := service.Search(ctx, models.Query{
				Term:     *query,
				MaxPages: *pages,
				Platform: platform,
			})

			results[i] = platformResult{Platform: platform, Count: len(records), Records: records}
			if err != nil {
				results[i].Error = err.Error()
				logger.Error("platform search failed", "platform", string(platform), "error", err)
			}
		}(i, platform)
	}
	wg.Wait()

	if store != nil {
		for _, result := range results {
			if err := store.SaveRecords(ctx, *query, result.Records); err != nil {
				logger.Error("failed to save results", "platform", string(result.Platform), "error", err)
			}
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		logger.Error("failed to encode results", "error", err)
		os.Exit(1)
	}

	for _, result := range results {
		if result.Error != "" {
			os.Exit(1)
		}
	}
}

func resolvePlatforms(flag string) ([]models.Platform, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "amazon":
		return []models.Platform{models.PlatformAmazon}, nil
	case "mercadolibre":
		return []models.Platform{models.PlatformMercadoLibre}, nil
	case "all", "":
		return []models.Platform{models.PlatformAmazon, models.PlatformMercadoLibre}, nil
	default:
		return nil, fmt.Errorf("unknown platform %q", flag)
	}
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
