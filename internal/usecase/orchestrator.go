package usecase

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/cartscout/backend/internal/domain"
)

// Unresolved-item reasons. Fixed strings so repeated runs render identically.
const (
	reasonEmptyItem     = "item name is empty after normalization"
	reasonNoData        = "no store returned data"
	reasonNoneAvailable = "no candidate is in stock with a known price"
	reasonNoneSuitable  = "no candidate satisfies the dietary constraints"
)

// ShoppingServiceConfig holds configuration for the shopping service
type ShoppingServiceConfig struct {
	// CacheTTL bounds how long an aggregation result stays fresh. Zero means
	// the one-hour default; prices go stale quickly.
	CacheTTL time.Duration
	Ranking  RankerConfig
}

// ShoppingService drives the whole pipeline for shopping lists: normalize
// each item, aggregate prices across stores, filter by dietary constraints,
// rank, and fold the winners into per-store totals. Items are processed
// strictly in input order and an unresolved item never aborts the list.
type ShoppingService struct {
	aggregator *Aggregator
	parser     *ListParser
	cache      domain.QuoteCache
	cacheTTL   time.Duration
	ranking    RankerConfig
	ranker     *Ranker
}

// NewShoppingService creates the service. cache may be nil to disable
// aggregation caching.
func NewShoppingService(aggregator *Aggregator, cache domain.QuoteCache, cfg ShoppingServiceConfig) (*ShoppingService, error) {
	ranker, err := NewRanker(cfg.Ranking)
	if err != nil {
		return nil, err
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &ShoppingService{
		aggregator: aggregator,
		parser:     NewListParser(false),
		cache:      cache,
		cacheTTL:   cacheTTL,
		ranking:    cfg.Ranking,
		ranker:     ranker,
	}, nil
}

// Stores returns the configured store identifiers in fan-out order.
func (s *ShoppingService) Stores() []string {
	return s.aggregator.Stores()
}

// SearchItem prices a single item across all stores and picks a
// recommendation. strategy overrides the configured default when non-empty.
// The returned AggregatedResult carries the full per-store breakdown even
// when the item is unresolved.
func (s *ShoppingService) SearchItem(ctx context.Context, q domain.Query, strategy domain.Strategy) (*domain.AggregatedResult, domain.ItemResult, error) {
	raw := strings.TrimSpace(q.Item)
	if raw == "" {
		return nil, domain.ItemResult{}, domain.ErrInvalidQuery
	}

	ranker, err := s.rankerFor(strategy)
	if err != nil {
		return nil, domain.ItemResult{}, err
	}

	q.Item = s.parser.NormalizeItemName(raw)
	if q.Item == "" {
		// Nothing left to query, but callers still get a renderable (empty)
		// breakdown rather than a nil aggregation.
		empty := &domain.AggregatedResult{Query: q, Sources: []domain.SourceResult{}}
		return empty, domain.ItemResult{Item: raw, Unresolved: true, Reason: reasonEmptyItem}, nil
	}

	agg, err := s.lookupAggregate(ctx, q)
	if err != nil {
		return nil, domain.ItemResult{}, err
	}

	return agg, s.resolve(ctx, ranker, raw, q, agg), nil
}

// ProcessList prices every item on the list, in order, and summarizes the
// outcome. Per-store totals and the best store consider winning items only;
// unresolved items are flagged with a reason and contribute nothing.
func (s *ShoppingService) ProcessList(ctx context.Context, list domain.ShoppingList, strategy domain.Strategy) (*domain.ListSummary, error) {
	if len(list.Items) == 0 {
		return nil, domain.ErrEmptyShoppingList
	}

	ranker, err := s.rankerFor(strategy)
	if err != nil {
		return nil, err
	}

	summary := &domain.ListSummary{
		Constraints: list.Constraints.Sorted(),
		Items:       make([]domain.ItemResult, 0, len(list.Items)),
	}
	totals := make(map[string]*domain.StoreTotal)

	for _, rawItem := range list.Items {
		raw := strings.TrimSpace(rawItem)
		name := s.parser.NormalizeItemName(raw)
		if name == "" {
			summary.Items = append(summary.Items, domain.ItemResult{
				Item: raw, Unresolved: true, Reason: reasonEmptyItem,
			})
			summary.Unresolved++
			continue
		}

		q := domain.Query{Item: name, Constraints: list.Constraints}
		agg, err := s.lookupAggregate(ctx, q)
		if err != nil {
			return nil, err
		}

		result := s.resolve(ctx, ranker, raw, q, agg)
		summary.Items = append(summary.Items, result)

		if !result.Resolved() {
			summary.Unresolved++
			continue
		}
		summary.Resolved++

		winner := result.Recommendation.Candidate
		t, ok := totals[winner.Store]
		if !ok {
			t = &domain.StoreTotal{Store: winner.Store}
			totals[winner.Store] = t
		}
		t.Total += *winner.Price
		t.Items = append(t.Items, raw)
		summary.TotalCost += *winner.Price
	}

	// Emit totals in store configuration order so output is reproducible.
	for _, store := range s.aggregator.Stores() {
		t, ok := totals[store]
		if !ok {
			continue
		}
		t.Total = roundCents(t.Total)
		summary.StoreTotals = append(summary.StoreTotals, *t)
	}
	summary.TotalCost = roundCents(summary.TotalCost)
	summary.BestStore = bestStore(summary.StoreTotals)

	return summary, nil
}

// resolve runs filter and ranking for one aggregated query and classifies the
// outcome.
func (s *ShoppingService) resolve(ctx context.Context, ranker *Ranker, rawItem string, q domain.Query, agg *domain.AggregatedResult) domain.ItemResult {
	candidates := agg.Candidates()
	compatible := FilterCompatible(candidates, q.Constraints)

	rec, err := ranker.Select(ctx, q, compatible)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, domain.ErrNoCompatibleCandidates) {
			switch {
			case len(candidates) == 0:
				reason = reasonNoData
			case !anyEligible(candidates):
				reason = reasonNoneAvailable
			default:
				reason = reasonNoneSuitable
			}
		}
		return domain.ItemResult{Item: rawItem, Unresolved: true, Reason: reason}
	}

	return domain.ItemResult{Item: rawItem, Recommendation: rec}
}

// rankerFor returns the default ranker, or builds one for a per-request
// strategy override.
func (s *ShoppingService) rankerFor(strategy domain.Strategy) (*Ranker, error) {
	if strategy == "" || strategy == s.ranker.Strategy() {
		return s.ranker, nil
	}
	cfg := s.ranking
	cfg.Strategy = strategy
	return NewRanker(cfg)
}

// lookupAggregate serves an aggregation from cache when possible.
// Flow: check cache -> fan out to stores -> cache -> return
func (s *ShoppingService) lookupAggregate(ctx context.Context, q domain.Query) (*domain.AggregatedResult, error) {
	key := q.CacheKey()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[CACHE] get failed for %q: %v", key, err)
		}
	}

	agg, err := s.aggregator.Aggregate(ctx, q)
	if err != nil {
		return nil, err
	}

	// Don't pin an all-failure aggregation for the whole TTL; the stores may
	// recover long before it expires.
	if s.cache != nil && anyAnswered(agg) {
		if err := s.cache.Set(ctx, key, agg, s.cacheTTL); err != nil {
			log.Printf("[CACHE] set failed for %q: %v", key, err)
		}
	}

	return agg, nil
}

// anyEligible reports whether at least one candidate could be bought at all,
// constraints aside.
func anyEligible(candidates []domain.Candidate) bool {
	for _, c := range candidates {
		if c.Eligible() {
			return true
		}
	}
	return false
}

// anyAnswered reports whether at least one source gave a real answer,
// no-data included.
func anyAnswered(agg *domain.AggregatedResult) bool {
	for _, r := range agg.Sources {
		if !r.Failed() {
			return true
		}
	}
	return false
}

// bestStore picks the store with the lowest combined total over its winning
// items, breaking ties toward the lexicographically smaller identifier.
func bestStore(totals []domain.StoreTotal) string {
	best := ""
	bestTotal := 0.0
	for _, t := range totals {
		if best == "" || t.Total < bestTotal || (t.Total == bestTotal && t.Store < best) {
			best = t.Store
			bestTotal = t.Total
		}
	}
	return best
}

// roundCents rounds a currency amount to two decimals.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
