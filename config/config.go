package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store source types.
const (
	StoreTypeStatic     = "static"
	StoreTypeCatalogAPI = "catalog_api"
	StoreTypeWeb        = "web_store"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Stores      []StoreConfig     `mapstructure:"stores"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Ranking     RankingConfig     `mapstructure:"ranking"`
	Oracle      OracleConfig      `mapstructure:"oracle"`
	Cache       CacheConfig       `mapstructure:"cache"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig describes one store source. Type decides which fields apply:
// static sources ignore everything past Name, catalog_api uses BaseURL/APIKey
// and the rate limit, web_store uses BaseURL/SearchPath and the selectors.
type StoreConfig struct {
	Name              string         `mapstructure:"name"`
	Type              string         `mapstructure:"type"`
	BaseURL           string         `mapstructure:"base_url"`
	APIKey            string         `mapstructure:"api_key"`
	SearchPath        string         `mapstructure:"search_path"`
	Timeout           time.Duration  `mapstructure:"timeout"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
	Selectors         SelectorConfig `mapstructure:"selectors"`
}

// SelectorConfig holds the CSS selectors for a web_store source. Empty fields
// fall back to the conventional class names.
type SelectorConfig struct {
	Product      string `mapstructure:"product"`
	Name         string `mapstructure:"name"`
	Price        string `mapstructure:"price"`
	Availability string `mapstructure:"availability"`
	DietaryBadge string `mapstructure:"dietary_badge"`
}

// AggregationConfig holds fan-out settings
type AggregationConfig struct {
	// SourceTimeout bounds every store fetch inside one aggregation.
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
}

// RankingConfig selects and tunes the default ranking strategy
type RankingConfig struct {
	Strategy string         `mapstructure:"strategy"`
	Weighted WeightedConfig `mapstructure:"weighted"`
}

// WeightedConfig tunes the weighted strategy
type WeightedConfig struct {
	PriceCeiling     float64  `mapstructure:"price_ceiling"`
	OverPricePenalty float64  `mapstructure:"over_price_penalty"`
	PreferredTags    []string `mapstructure:"preferred_tags"`
	TagBonus         float64  `mapstructure:"tag_bonus"`
}

// OracleConfig holds the selection-oracle client configuration
type OracleConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
}

// CacheConfig holds quote-cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory", "redis" or "off"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DefaultStores is the zero-dependency demo fleet the server falls back to
// when no stores are configured.
func DefaultStores() []StoreConfig {
	return []StoreConfig{
		{Name: "costwise", Type: StoreTypeStatic},
		{Name: "greenleaf", Type: StoreTypeStatic},
		{Name: "midtown", Type: StoreTypeStatic},
		{Name: "harvest", Type: StoreTypeStatic},
	}
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartscout/")

	// Environment variable settings
	v.SetEnvPrefix("CARTSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// The store list cannot be expressed as a viper default; fall back to the
	// demo fleet when the config file names none.
	if len(config.Stores) == 0 {
		config.Stores = DefaultStores()
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Aggregation defaults
	v.SetDefault("aggregation.source_timeout", "10s")

	// Ranking defaults
	v.SetDefault("ranking.strategy", "cheapest")
	v.SetDefault("ranking.weighted.price_ceiling", 0.0)
	v.SetDefault("ranking.weighted.over_price_penalty", 1.0)
	v.SetDefault("ranking.weighted.tag_bonus", 1.0)

	// Oracle defaults
	v.SetDefault("oracle.enabled", false)
	v.SetDefault("oracle.base_url", "https://api.openai.com/v1")
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.timeout", "30s")
	v.SetDefault("oracle.temperature", 0.2)

	// Cache defaults; prices go stale quickly, so the TTL is short
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "1h")
}

// validate validates the configuration
func validate(config *Config) error {
	for _, sc := range config.Stores {
		if strings.TrimSpace(sc.Name) == "" {
			return fmt.Errorf("store with empty name")
		}
		switch sc.Type {
		case StoreTypeStatic:
		case StoreTypeCatalogAPI, StoreTypeWeb:
			if sc.BaseURL == "" {
				return fmt.Errorf("store %q: base_url is required for type %q", sc.Name, sc.Type)
			}
		default:
			return fmt.Errorf("store %q: unknown type %q", sc.Name, sc.Type)
		}
	}

	switch config.Ranking.Strategy {
	case "cheapest", "weighted":
	case "delegated":
		if !config.Oracle.Enabled {
			return fmt.Errorf("ranking strategy 'delegated' requires oracle.enabled")
		}
	default:
		return fmt.Errorf("ranking strategy must be 'cheapest', 'weighted' or 'delegated', got: %s", config.Ranking.Strategy)
	}

	if config.Oracle.Enabled && config.Oracle.APIKey == "" {
		return fmt.Errorf("oracle API key is required when oracle is enabled (set CARTSCOUT_ORACLE_API_KEY)")
	}

	switch config.Cache.Type {
	case "memory", "off":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'off', got: %s", config.Cache.Type)
	}

	return nil
}
