package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App         AppConfig
	Scraping    ScrapingConfig
	Preferences PreferencesConfig
	Targets     []TargetConfig
	Database    DatabaseConfig
	Logging     LoggingConfig
	Server      ServerConfig
}

// AppConfig holds application metadata
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ScrapingConfig holds fetcher and pipeline settings
type ScrapingConfig struct {
	UserAgent        string            `mapstructure:"user_agent"`
	MaxRetries       int               `mapstructure:"max_retries"`
	TimeoutMS        int               `mapstructure:"timeout_ms"`
	RetryBaseDelayMS int               `mapstructure:"retry_base_delay_ms"`
	RequestDelayMS   int               `mapstructure:"request_delay_ms"`
	MaxItemsPerPage  int               `mapstructure:"max_items_per_page"`
	TargetTimeout    time.Duration     `mapstructure:"target_timeout"`
	Concurrency      ConcurrencyConfig `mapstructure:"concurrency"`
	PageCache        PageCacheConfig   `mapstructure:"page_cache"`
}

// ConcurrencyConfig bounds parallel targets and item escalations per target
type ConcurrencyConfig struct {
	Targets int `mapstructure:"targets"`
	Items   int `mapstructure:"items"`
}

// PageCacheConfig sizes the in-memory product page cache
type PageCacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// PreferencesConfig holds the size filter
type PreferencesConfig struct {
	SizeFilteringEnabled bool                `mapstructure:"size_filtering_enabled"`
	PreferredSizes       map[string][]string `mapstructure:"preferred_sizes"`
}

// TargetConfig is one storefront listing to scrape
type TargetConfig struct {
	Name      string           `mapstructure:"name"`
	BaseURL   string           `mapstructure:"base_url"`
	URL       string           `mapstructure:"url"`
	Selectors domain.Selectors `mapstructure:"selectors"`
}

// DatabaseConfig selects the storage backend
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// LoggingConfig holds log level and handler format
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load loads configuration from a config file, environment variables and
// defaults. An empty path searches the usual locations and then merges an
// optional config.local.yaml over the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/saletracker/")
	}

	// SALE_TRACKER_SCRAPING_MAX_RETRIES overrides scraping.max_retries
	v.SetEnvPrefix("SALE_TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if path == "" {
		v.SetConfigName("config.local")
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading local config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Sale Tracker")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("scraping.user_agent", "Sale-Tracker/1.0")
	v.SetDefault("scraping.max_retries", 3)
	v.SetDefault("scraping.timeout_ms", 30000)
	v.SetDefault("scraping.retry_base_delay_ms", 1000)
	v.SetDefault("scraping.request_delay_ms", 1000)
	v.SetDefault("scraping.max_items_per_page", 50)
	v.SetDefault("scraping.target_timeout", "5m")
	v.SetDefault("scraping.concurrency.targets", 2)
	v.SetDefault("scraping.concurrency.items", 4)
	v.SetDefault("scraping.page_cache.size", 256)
	v.SetDefault("scraping.page_cache.ttl", "10m")

	v.SetDefault("preferences.size_filtering_enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/sales.db")
	v.SetDefault("database.max_conns", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
}

// validate validates the configuration
func validate(config *Config) error {
	s := config.Scraping
	if s.MaxRetries < 1 {
		return fmt.Errorf("scraping.max_retries must be at least 1, got: %d", s.MaxRetries)
	}
	if s.TimeoutMS <= 0 {
		return fmt.Errorf("scraping.timeout_ms must be positive, got: %d", s.TimeoutMS)
	}
	if s.RetryBaseDelayMS < 0 || s.RequestDelayMS < 0 {
		return fmt.Errorf("scraping delays must not be negative")
	}
	if s.MaxItemsPerPage <= 0 {
		return fmt.Errorf("scraping.max_items_per_page must be positive, got: %d", s.MaxItemsPerPage)
	}

	seen := make(map[string]bool, len(config.Targets))
	for i, t := range config.Targets {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("targets[%d]: name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("targets[%d]: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true
		if !isHTTPURL(t.URL) {
			return fmt.Errorf("targets[%d] %s: url must be an absolute http(s) url, got: %q", i, t.Name, t.URL)
		}
		if t.BaseURL != "" && !isHTTPURL(t.BaseURL) {
			return fmt.Errorf("targets[%d] %s: base_url must be an absolute http(s) url, got: %q", i, t.Name, t.BaseURL)
		}
	}

	switch config.Database.Driver {
	case "sqlite":
	case "postgres":
		if config.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required when driver is 'postgres' (set SALE_TRACKER_DATABASE_DSN)")
		}
	default:
		return fmt.Errorf("database driver must be 'sqlite' or 'postgres', got: %s", config.Database.Driver)
	}

	if _, err := ParseLevel(config.Logging.Level); err != nil {
		return err
	}
	if config.Logging.Format != "text" && config.Logging.Format != "json" {
		return fmt.Errorf("logging format must be 'text' or 'json', got: %s", config.Logging.Format)
	}

	return nil
}

// WebsiteTargets turns the configured targets into pipeline targets, filling
// unset selectors from domain.DefaultSelectors and an unset base url from
// the scheme and host of the listing url
func (c *Config) WebsiteTargets() ([]domain.WebsiteTarget, error) {
	targets := make([]domain.WebsiteTarget, 0, len(c.Targets))
	for _, t := range c.Targets {
		selectors := t.Selectors
		if err := mergo.Merge(&selectors, domain.DefaultSelectors); err != nil {
			return nil, fmt.Errorf("merge selectors of %s: %w", t.Name, err)
		}

		base := t.BaseURL
		if base == "" {
			u, err := url.Parse(t.URL)
			if err != nil {
				return nil, fmt.Errorf("target %s: %w", t.Name, err)
			}
			base = u.Scheme + "://" + u.Host
		}

		targets = append(targets, domain.WebsiteTarget{
			Name:       t.Name,
			BaseURL:    base,
			ListingURL: t.URL,
			Selectors:  selectors,
		})
	}
	return targets, nil
}

// Timeout returns the per-request timeout
func (s ScrapingConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// RetryBaseDelay returns the backoff base delay
func (s ScrapingConfig) RetryBaseDelay() time.Duration {
	return time.Duration(s.RetryBaseDelayMS) * time.Millisecond
}

// RequestDelay returns the politeness delay between requests to one host
func (s ScrapingConfig) RequestDelay() time.Duration {
	return time.Duration(s.RequestDelayMS) * time.Millisecond
}

// ParseLevel maps a logging level name to a slog level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("logging level must be debug, info, warn or error, got: %s", level)
	}
	return l, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
