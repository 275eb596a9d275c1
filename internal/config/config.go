package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Debug    DebugConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	RateLimitMin      time.Duration
	RateLimitMax      time.Duration
	MaxAttempts       int
	RetryBaseDelay    time.Duration
	BackoffMultiplier float64
	RequestTimeout    time.Duration
	APIPageSize       int
}

type BrowserConfig struct {
	Headless        bool
	Timeout         time.Duration
	SelectorTimeout time.Duration
	ViewportWidth   int
	ViewportHeight  int
	AcceptLanguage  string
	TimezoneID      string
	Locale          string
	MaxAttempts     int
}

type CacheConfig struct {
	Dir        string
	TTL        time.Duration
	MemEntries int
	RedisAddr  string
	RedisDB    int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type DebugConfig struct {
	Enabled bool
	Dir     string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			RateLimitMin:      getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", 2*time.Second),
			RateLimitMax:      getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 6*time.Second),
			MaxAttempts:       getIntOrDefault("SCRAPER_MAX_ATTEMPTS", 3),
			RetryBaseDelay:    getDurationOrDefault("SCRAPER_RETRY_BASE_DELAY", 1*time.Second),
			BackoffMultiplier: getFloatOrDefault("SCRAPER_BACKOFF_MULTIPLIER", 2.0),
			RequestTimeout:    getDurationOrDefault("SCRAPER_REQUEST_TIMEOUT", 30*time.Second),
			APIPageSize:       getIntOrDefault("SCRAPER_API_PAGE_SIZE", 50),
		},
		Browser: BrowserConfig{
			Headless:        getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:         getDurationOrDefault("BROWSER_TIMEOUT", 45*time.Second),
			SelectorTimeout: getDurationOrDefault("BROWSER_SELECTOR_TIMEOUT", 10*time.Second),
			ViewportWidth:   getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1366),
			ViewportHeight:  getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 768),
			AcceptLanguage:  getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			TimezoneID:      getEnvOrDefault("BROWSER_TIMEZONE", "America/New_York"),
			Locale:          getEnvOrDefault("BROWSER_LOCALE", "en-US"),
			MaxAttempts:     getIntOrDefault("BROWSER_MAX_ATTEMPTS", 2),
		},
		Cache: CacheConfig{
			Dir:        getEnvOrDefault("CACHE_DIR", ".cache"),
			TTL:        getDurationOrDefault("CACHE_TTL", 4*time.Hour),
			MemEntries: getIntOrDefault("CACHE_MEM_ENTRIES", 256),
			RedisAddr:  getEnvOrDefault("CACHE_REDIS_ADDR", ""),
			RedisDB:    getIntOrDefault("CACHE_REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "market_search"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Debug: DebugConfig{
			Enabled: getBoolOrDefault("DEBUG_PAGES_ENABLED", false),
			Dir:     getEnvOrDefault("DEBUG_PAGES_DIR", "debug_pages"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.MaxAttempts < 1 {
		return fmt.Errorf("SCRAPER_MAX_ATTEMPTS must be at least 1")
	}

	if c.Scraper.BackoffMultiplier < 1 {
		return fmt.Errorf("SCRAPER_BACKOFF_MULTIPLIER must be at least 1")
	}

	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("SCRAPER_RATE_LIMIT_MIN cannot be greater than SCRAPER_RATE_LIMIT_MAX")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
