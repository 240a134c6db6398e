package stores

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cartscout/backend/internal/domain"
)

// StaticProduct is one catalog entry served by a StaticSource.
type StaticProduct struct {
	Name         string
	Price        float64
	Available    bool
	Restrictions []string
	Ingredients  []string
	AllergenNote string
}

// StaticConfig configures a StaticSource.
type StaticConfig struct {
	Store string
	// Catalog is the inventory to serve. Empty falls back to the demo catalog
	// for the store, letting the server run with zero external dependencies.
	Catalog []StaticProduct
	// Latency is an artificial per-fetch delay for exercising timeouts.
	Latency time.Duration
}

// StaticSource serves a fixed in-memory catalog. It backs local development,
// the demo configuration and tests; matching is a simple token overlap
// between the queried item and product names.
type StaticSource struct {
	store   string
	catalog []StaticProduct
	latency time.Duration
}

// NewStaticSource creates a static source for one store.
func NewStaticSource(cfg StaticConfig) *StaticSource {
	store := domain.NormalizeStoreID(cfg.Store)
	catalog := cfg.Catalog
	if len(catalog) == 0 {
		catalog = DemoCatalog(store)
	}
	return &StaticSource{
		store:   store,
		catalog: catalog,
		latency: cfg.Latency,
	}
}

// Store returns the store identifier.
func (s *StaticSource) Store() string { return s.store }

// Fetch matches the queried item against the catalog.
func (s *StaticSource) Fetch(ctx context.Context, q domain.Query) (domain.SourceResult, error) {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return domain.SourceResult{}, ctx.Err()
		}
	}

	matches := s.match(q.Item)
	if len(matches) == 0 {
		return domain.SourceResult{
			Store:      s.store,
			Status:     domain.SourceNoData,
			Candidates: []domain.Candidate{},
		}, nil
	}

	candidates := make([]domain.Candidate, len(matches))
	for i, p := range matches {
		candidates[i] = s.toCandidate(p)
	}
	return domain.SourceResult{
		Store:      s.store,
		Status:     domain.SourceOK,
		Candidates: candidates,
	}, nil
}

// match returns catalog products sharing at least one token with the query,
// best overlap first, name breaking score ties.
func (s *StaticSource) match(item string) []StaticProduct {
	queryTokens := tokenizeProduct(item)
	if len(queryTokens) == 0 {
		return nil
	}

	type scored struct {
		product StaticProduct
		score   float64
	}
	var hits []scored
	for _, p := range s.catalog {
		shared := 0
		productTokens := tokenizeProduct(p.Name)
		for t := range queryTokens {
			if productTokens[t] {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		hits = append(hits, scored{product: p, score: float64(shared) / float64(len(queryTokens))})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].product.Name < hits[j].product.Name
	})

	products := make([]StaticProduct, len(hits))
	for i, h := range hits {
		products[i] = h.product
	}
	return products
}

func (s *StaticSource) toCandidate(p StaticProduct) domain.Candidate {
	handled := make([]domain.Tag, 0, len(p.Restrictions))
	for _, r := range p.Restrictions {
		if t := domain.NormalizeTag(r); t != "" {
			handled = append(handled, t)
		}
	}
	return domain.Candidate{
		Store:       s.store,
		ProductName: p.Name,
		Price:       domain.PriceOf(p.Price),
		Available:   p.Available,
		Dietary: domain.DietaryInfo{
			HandledRestrictions: handled,
			Ingredients:         p.Ingredients,
			AllergenNote:        p.AllergenNote,
		},
	}
}

var nonTokenPattern = regexp.MustCompile(`[^a-z0-9]+`)

// tokenizeProduct lowercases and splits on non-alphanumerics, dropping
// single-letter fragments.
func tokenizeProduct(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range nonTokenPattern.Split(strings.ToLower(s), -1) {
		if len(t) > 1 {
			tokens[t] = true
		}
	}
	return tokens
}
