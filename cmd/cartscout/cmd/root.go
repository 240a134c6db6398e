package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cartscout/backend/config"
	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/infrastructure/oracle"
	"github.com/cartscout/backend/internal/infrastructure/stores"
	"github.com/cartscout/backend/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "cartscout",
	Short: "cartscout compares grocery prices across stores and picks where to shop.",
}

func Execute() {
	// Tables and picks go to stdout; logs stay on stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(0)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildShoppingService wires the same pipeline the server runs, minus HTTP.
// The CLI never uses a quote cache: one process, one list, fresh prices.
func buildShoppingService(cfg *config.Config) (*usecase.ShoppingService, error) {
	sources, err := stores.Build(cfg.Stores)
	if err != nil {
		return nil, fmt.Errorf("build store sources: %w", err)
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
			return nil, fmt.Errorf("build selection oracle: %w", err)
		}
		selectionOracle = client
	}

	return usecase.NewShoppingService(aggregator, nil, usecase.ShoppingServiceConfig{
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
}
