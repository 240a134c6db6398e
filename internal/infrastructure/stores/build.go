package stores

import (
	"fmt"

	"github.com/cartscout/backend/config"
	"github.com/cartscout/backend/internal/domain"
)

// Build turns store configuration into live sources, preserving configured
// order. That order is load-bearing: results, totals and cache contents all
// render in it.
func Build(cfgs []config.StoreConfig) ([]domain.StoreSource, error) {
	sources := make([]domain.StoreSource, 0, len(cfgs))
	for _, sc := range cfgs {
		src, err := buildOne(sc)
		if err != nil {
			return nil, fmt.Errorf("store %q: %w", sc.Name, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func buildOne(sc config.StoreConfig) (domain.StoreSource, error) {
	switch sc.Type {
	case config.StoreTypeStatic:
		return NewStaticSource(StaticConfig{Store: sc.Name}), nil
	case config.StoreTypeCatalogAPI:
		return NewCatalogAPISource(CatalogAPIConfig{
			Store:             sc.Name,
			BaseURL:           sc.BaseURL,
			APIKey:            sc.APIKey,
			Timeout:           sc.Timeout,
			RequestsPerSecond: sc.RequestsPerSecond,
		}), nil
	case config.StoreTypeWeb:
		return NewWebStoreSource(WebStoreConfig{
			Store:      sc.Name,
			BaseURL:    sc.BaseURL,
			SearchPath: sc.SearchPath,
			Timeout:    sc.Timeout,
			Selectors: WebStoreSelectors{
				Product:      sc.Selectors.Product,
				Name:         sc.Selectors.Name,
				Price:        sc.Selectors.Price,
				Availability: sc.Selectors.Availability,
				DietaryBadge: sc.Selectors.DietaryBadge,
			},
		}), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", sc.Type)
	}
}
