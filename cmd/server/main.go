package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cartscout/backend/config"
	httpDelivery "github.com/cartscout/backend/internal/delivery/http"
	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/infrastructure/cache"
	"github.com/cartscout/backend/internal/infrastructure/oracle"
	"github.com/cartscout/backend/internal/infrastructure/stores"
	"github.com/cartscout/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CartScout Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Stores: %d configured", len(cfg.Stores))
	log.Printf("Ranking strategy: %s", cfg.Ranking.Strategy)

	// Initialize infrastructure dependencies
	quoteCache := buildCache(cfg)

	sources, err := stores.Build(cfg.Stores)
	if err != nil {
		log.Fatalf("Failed to build store sources: %v", err)
	}
	aggregator := usecase.NewAggregator(sources, cfg.Aggregation.SourceTimeout)

	var selectionOracle domain.SelectionOracle
	if cfg.Oracle.Enabled {
		client, err := oracle.NewClient(oracle.Config{
			BaseURL:     cfg.Oracle.BaseURL,
			APIKey:      cfg.Oracle.APIKey,
			Model:       cfg.Oracle.Model,
			Timeout:     cfg.Oracle.Timeout,
			Temperature: cfg.Oracle.Temperature,
		})
		if err != nil {
			log.Fatalf("Failed to build selection oracle: %v", err)
		}
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
		}
		selectionOracle = client
		log.Printf("Selection oracle configured: %s (model: %s)", cfg.Oracle.BaseURL, cfg.Oracle.Model)
	}

	// Initialize usecase layer
	shopping, err := usecase.NewShoppingService(aggregator, quoteCache, usecase.ShoppingServiceConfig{
		CacheTTL: cfg.Cache.TTL,
		Ranking: usecase.RankerConfig{
			Strategy: domain.Strategy(cfg.Ranking.Strategy),
			Weighted: usecase.WeightedConfig{
				PriceCeiling:     cfg.Ranking.Weighted.PriceCeiling,
				OverPricePenalty: cfg.Ranking.Weighted.OverPricePenalty,
				PreferredTags:    domain.NewTagSet(cfg.Ranking.Weighted.PreferredTags...),
				TagBonus:         cfg.Ranking.Weighted.TagBonus,
			},
			Oracle: selectionOracle,
		},
	})
	if err != nil {
		log.Fatalf("Failed to build shopping service: %v", err)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(shopping)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildCache selects the quote-cache backend. "off" disables caching
// entirely; the shopping service treats a nil cache as a pass-through.
func buildCache(cfg *config.Config) domain.QuoteCache {
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.Cache.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Printf("Cache: redis (TTL %s)", cfg.Cache.TTL)
		return redisCache
	case "off":
		log.Printf("Cache: disabled")
		return nil
	default:
		log.Printf("Cache: memory (TTL %s)", cfg.Cache.TTL)
		return cache.NewMemoryCache()
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
